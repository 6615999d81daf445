package schema

// ForeignKey is an immutable edge from a column to a column of another table's
// schema. It names the target; it does not own the target table.
type ForeignKey struct {
	column string
	table  *Table
	target Field
}

// Column is the name of the referencing column.
func (k *ForeignKey) Column() string { return k.column }

// Table is the referenced schema.
func (k *ForeignKey) Table() *Table { return k.table }

// TableName is the referenced table's name.
func (k *ForeignKey) TableName() string { return k.table.Name() }

// Target is the referenced column prototype.
func (k *ForeignKey) Target() Field { return k.target }

func (k *ForeignKey) equal(o *ForeignKey) bool {
	if k == nil || o == nil {
		return k == o
	}
	return k.column == o.column && k.TableName() == o.TableName() && k.target.Name() == o.target.Name()
}
