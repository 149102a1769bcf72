package recordlist

import (
	"fmt"

	"github.com/SierraSoftworks/connor"
)

// Find returns, in list order, the records matching a connor filter such as
// {"address": "Patna"} or {"userName": {"$in": ["Vishal", "Rahul"]}}. The id
// can be matched as "id". An empty filter matches every record.
func (s *Store) Find(filter map[string]interface{}) ([]Record, error) {
	result := []Record{}

	for _, record := range s.List() {
		if len(filter) == 0 {
			result = append(result, record)
			continue
		}

		match, err := connor.Match(filter, record.Document())
		if err != nil {
			return nil, fmt.Errorf("match: %w", err)
		}
		if match {
			result = append(result, record)
		}
	}

	return result, nil
}
