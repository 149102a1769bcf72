package storage

import (
	"fmt"

	"github.com/go-json-experiment/json"

	"github.com/fulldump/recordlist/recordlist"
)

// Encode serializes records as a JSON array of flat objects, each one tagged
// with its id:
//
//	[{"address":"Patna","id":"u1","userName":"Vishal"}]
func Encode(records []recordlist.Record) ([]byte, error) {
	documents := make([]map[string]string, 0, len(records))
	for _, record := range records {
		document := make(map[string]string, len(record.Fields)+1)
		for k, v := range record.Fields {
			document[k] = v
		}
		document[recordlist.IDField] = record.ID
		documents = append(documents, document)
	}

	data, err := json.Marshal(documents, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("json encode list: %w", err)
	}

	return data, nil
}

// Decode is the inverse of Encode. Every object must carry a string id and
// only string values.
func Decode(data []byte) ([]recordlist.Record, error) {
	documents := []map[string]string{}
	err := json.Unmarshal(data, &documents)
	if err != nil {
		return nil, fmt.Errorf("json decode list: %w", err)
	}

	records := make([]recordlist.Record, 0, len(documents))
	for i, document := range documents {
		id, exists := document[recordlist.IDField]
		if !exists || id == "" {
			return nil, fmt.Errorf("decode record %d: %w", i, recordlist.ErrEmptyID)
		}

		fields := make(recordlist.Fields, len(document)-1)
		for k, v := range document {
			if k == recordlist.IDField {
				continue
			}
			fields[k] = v
		}

		records = append(records, recordlist.Record{
			ID:     id,
			Fields: fields,
		})
	}

	return records, nil
}
