package domain

import "testing"

func TestFrameAppendAndLen(t *testing.T) {
	f := NewFrame("id", "name")
	if !f.Empty() {
		t.Error("new frame should be empty")
	}

	f.Append(int64(1), "first")
	f.Append(int64(2), "second")

	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}
	if f.Empty() {
		t.Error("frame with rows should not be empty")
	}
}

func TestFrameColumnIndex(t *testing.T) {
	f := NewFrame("id", "geometry", "name")

	if idx := f.ColumnIndex("geometry"); idx != 1 {
		t.Errorf("ColumnIndex(geometry) = %d, want 1", idx)
	}
	if idx := f.ColumnIndex("missing"); idx != -1 {
		t.Errorf("ColumnIndex(missing) = %d, want -1", idx)
	}
	if !f.HasColumn("name") {
		t.Error("HasColumn(name) = false, want true")
	}
	if f.HasColumn("missing") {
		t.Error("HasColumn(missing) = true, want false")
	}
}

func TestFrameColumn(t *testing.T) {
	f := NewFrame("id", "name")
	f.Append(int64(1), "first")
	f.Append(int64(2), "second")

	values := f.Column("name")
	if len(values) != 2 || values[0] != "first" || values[1] != "second" {
		t.Errorf("Column(name) = %v, want [first second]", values)
	}

	if f.Column("missing") != nil {
		t.Error("Column(missing) should return nil")
	}
}

func TestFrameDropColumn(t *testing.T) {
	f := NewFrame("id", "wkt", "name")
	f.Append(int64(1), "POINT(1 2)", "first")

	f.DropColumn("wkt")

	if f.HasColumn("wkt") {
		t.Error("wkt column should be gone")
	}
	if len(f.Columns) != 2 {
		t.Errorf("columns = %v, want 2 columns", f.Columns)
	}
	if len(f.Rows[0]) != 2 {
		t.Errorf("row width = %d, want 2", len(f.Rows[0]))
	}
	if f.Rows[0][1] != "first" {
		t.Errorf("remaining value = %v, want %q", f.Rows[0][1], "first")
	}

	// Dropping an absent column is a no-op
	f.DropColumn("missing")
	if len(f.Columns) != 2 {
		t.Errorf("columns after no-op drop = %v", f.Columns)
	}
}

func TestFrameAddColumn(t *testing.T) {
	f := NewFrame("id")
	f.Append(int64(1))
	f.Append(int64(2))

	f.AddColumn("name", []any{"first"})

	if !f.HasColumn("name") {
		t.Fatal("name column should be present")
	}
	if f.Rows[0][1] != "first" {
		t.Errorf("first value = %v, want %q", f.Rows[0][1], "first")
	}
	// Missing values are padded with nil
	if f.Rows[1][1] != nil {
		t.Errorf("padded value = %v, want nil", f.Rows[1][1])
	}
}
