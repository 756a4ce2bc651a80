package store

// Key layout inside a Badger entity prefix:
//
//	<prefix><id>                          document
//	<prefix>idx:<name>:<value>            unique index -> id
//	<prefix>idx:<name>:<value>:<id>       multi-value index -> id

const indexSegment = "idx:"

func docKey(prefix, id string) []byte {
	buf := make([]byte, 0, len(prefix)+len(id))
	buf = append(buf, prefix...)
	buf = append(buf, id...)
	return buf
}

// indexKey builds the key of a unique index entry, or the scan prefix of a
// multi-value index when a trailing separator is wanted.
func indexKey(prefix, name, value string) []byte {
	buf := make([]byte, 0, len(prefix)+len(indexSegment)+len(name)+len(value)+1)
	buf = append(buf, prefix...)
	buf = append(buf, indexSegment...)
	buf = append(buf, name...)
	buf = append(buf, ':')
	buf = append(buf, value...)
	return buf
}

func multiIndexPrefix(prefix, name, value string) []byte {
	return append(indexKey(prefix, name, value), ':')
}

func multiIndexKey(prefix, name, value, id string) []byte {
	return append(multiIndexPrefix(prefix, name, value), id...)
}
