package shared

// Versioned is the optimistic-lock state of a persisted row. Version is the
// value the next write stores; the stored version is what the row held when
// it was read or last written, zero for a row never stored.
type Versioned struct {
	Version int
	stored  int
}

// RestoreVersion is called by repositories when a row is loaded
func (v *Versioned) RestoreVersion(n int) {
	v.Version = n
	v.stored = n
}

// StoredVersion returns the version the row holds in storage
func (v *Versioned) StoredVersion() int { return v.stored }

// IsStored reports whether the row was loaded from or written to storage
func (v *Versioned) IsStored() bool { return v.stored > 0 }

// NextVersion moves Version past the stored version and returns the stored
// version a conditional write must still find.
func (v *Versioned) NextVersion() int {
	if v.Version <= v.stored {
		v.Version = v.stored + 1
	}
	return v.stored
}

// MarkStored records a successful write
func (v *Versioned) MarkStored() {
	v.stored = v.Version
}
