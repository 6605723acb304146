package hibag

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Time exists to facilitate time parsing from the model Metadata, because the
// sqlite drivers hand back unixtime integers, text strings or time values
// depending on the driver and column affinity. Derived from
// https://github.com/mattn/go-sqlite3/issues/190#issuecomment-343341834f
type Time time.Time

const timeLayout = "2006-01-02 15:04:05"

func (t *Time) Scan(v interface{}) error {
	switch which := v.(type) {
	case int64:
		vt := time.Unix(which, 0)
		*t = Time(vt)
		return nil
	case int:
		vt := time.Unix(int64(which), 0)
		*t = Time(vt)
		return nil
	case time.Time:
		*t = Time(which)
		return nil
	case []byte:
		return t.parse(string(which))
	case string:
		return t.parse(which)
	}

	return fmt.Errorf("No appropriate type could be found to decode %v", v)
}

func (t *Time) parse(s string) error {
	// Should be more strictly to check this type.
	vt, err := time.Parse(timeLayout, s)
	if err != nil {
		return err
	}
	*t = Time(vt)
	return nil
}

// Value stores the time as unixtime.
func (t Time) Value() (driver.Value, error) {
	return time.Time(t).Unix(), nil
}

func (t Time) String() string {
	return time.Time(t).UTC().Format(timeLayout)
}
