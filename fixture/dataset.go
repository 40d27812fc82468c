package fixture

// DataSet maps aliases to loaded rows and remembers insertion order.
type DataSet struct {
	aliases []string
	rows    map[string]Row
}

// NewDataSet returns an empty data set.
func NewDataSet() *DataSet {
	return &DataSet{rows: make(map[string]Row)}
}

// Len returns the number of loaded rows.
func (d *DataSet) Len() int { return len(d.aliases) }

// Get returns the row stored under alias.
func (d *DataSet) Get(alias string) (Row, bool) {
	row, ok := d.rows[alias]
	return row, ok
}

// Aliases returns the aliases in load order.
func (d *DataSet) Aliases() []string {
	out := make([]string, len(d.aliases))
	copy(out, d.aliases)
	return out
}

// Entries returns the loaded rows in load order.
func (d *DataSet) Entries() []Entry {
	out := make([]Entry, 0, len(d.aliases))
	for _, alias := range d.aliases {
		out = append(out, Entry{Alias: alias, Row: d.rows[alias]})
	}
	return out
}

// Map returns the data set as a plain map.
func (d *DataSet) Map() map[string]Row {
	out := make(map[string]Row, len(d.rows))
	for alias, row := range d.rows {
		out[alias] = row
	}
	return out
}

func (d *DataSet) add(alias string, row Row) {
	if _, exists := d.rows[alias]; !exists {
		d.aliases = append(d.aliases, alias)
	}
	d.rows[alias] = row
}
