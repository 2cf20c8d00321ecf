package config

import (
	"fmt"
	"strconv"
	"time"
)

// Duration decodes either a Go duration ("59s", "1m30s") or a bare number
// of seconds ("59").
type Duration time.Duration

func (d *Duration) Decode(value string) error {
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}
	v, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q", value)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }
