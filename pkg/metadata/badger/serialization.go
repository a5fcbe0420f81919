package badger

import (
	"encoding/json"
	"fmt"

	"github.com/nexushq/drivefs/pkg/metadata"
)

// Serialization Strategy
// ======================
//
// Records are stored as JSON. Metadata records are small and read-heavy;
// JSON keeps the database inspectable and tolerates schema evolution
// (new optional fields decode as zero values). Index entries carry no
// payload at all, so no encoding applies to them.

func encodeOrg(org *metadata.Organization) ([]byte, error) {
	data, err := json.Marshal(org)
	if err != nil {
		return nil, fmt.Errorf("failed to encode organization: %w", err)
	}
	return data, nil
}

func decodeOrg(data []byte) (*metadata.Organization, error) {
	var org metadata.Organization
	if err := json.Unmarshal(data, &org); err != nil {
		return nil, fmt.Errorf("failed to decode organization: %w", err)
	}
	return &org, nil
}

func encodeFolder(folder *metadata.Folder) ([]byte, error) {
	data, err := json.Marshal(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to encode folder: %w", err)
	}
	return data, nil
}

func decodeFolder(data []byte) (*metadata.Folder, error) {
	var folder metadata.Folder
	if err := json.Unmarshal(data, &folder); err != nil {
		return nil, fmt.Errorf("failed to decode folder: %w", err)
	}
	return &folder, nil
}

func encodeFile(file *metadata.File) ([]byte, error) {
	data, err := json.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file: %w", err)
	}
	return data, nil
}

func decodeFile(data []byte) (*metadata.File, error) {
	var file metadata.File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode file: %w", err)
	}
	return &file, nil
}
