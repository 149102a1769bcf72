package recordlist

// IDField is the name the record id takes when a record is flattened into a
// single mapping. It can not be used as a field name.
const IDField = "id"

// Fields maps field names to values.
type Fields map[string]string

func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	c := make(Fields, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}

type Record struct {
	ID     string
	Fields Fields
}

func (r Record) clone() Record {
	return Record{
		ID:     r.ID,
		Fields: r.Fields.Clone(),
	}
}

// Document returns the record as one flat mapping, with the id stored under
// IDField.
func (r Record) Document() map[string]interface{} {
	document := make(map[string]interface{}, len(r.Fields)+1)
	for k, v := range r.Fields {
		document[k] = v
	}
	document[IDField] = r.ID
	return document
}
