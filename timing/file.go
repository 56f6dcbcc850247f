package timing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/apparentlymart/cta-timings/internal/atomicfile"
)

// Marshal renders modes in the intermediate JSON format. Identical input
// always gives byte-identical output.
func Marshal(modes []TimingMode) ([]byte, error) {
	if modes == nil {
		modes = []TimingMode{}
	}
	buf, err := json.MarshalIndent(modes, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}

func Write(w io.Writer, modes []TimingMode) error {
	buf, err := Marshal(modes)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// WriteFile writes modes to path. The file is replaced atomically, so on
// error nothing is left at path that wasn't there before.
func WriteFile(path string, modes []TimingMode) error {
	buf, err := Marshal(modes)
	if err != nil {
		return err
	}
	return atomicfile.Write(path, buf, 0o644)
}

// Read decodes the intermediate JSON format, checking each record against
// the schema. Any deviation is reported as a *MalformedRecordError.
func Read(r io.Reader) ([]TimingMode, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(src, &raws); err != nil {
		return nil, &MalformedRecordError{Index: -1, Reason: fmt.Sprintf("not a JSON array: %s", err)}
	}
	if raws == nil {
		return nil, &MalformedRecordError{Index: -1, Reason: "not a JSON array: null"}
	}

	ret := make([]TimingMode, 0, len(raws))
	for i, raw := range raws {
		mode, err := decodeRecord(i, raw)
		if err != nil {
			return nil, err
		}
		ret = append(ret, mode)
	}
	return ret, nil
}

func ReadFile(path string) ([]TimingMode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func decodeRecord(index int, raw json.RawMessage) (TimingMode, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return TimingMode{}, &MalformedRecordError{Index: index, Reason: "record is not a JSON object"}
	}

	d := &recordDecoder{index: index, obj: obj}
	m := TimingMode{Ln: 1}

	d.int("vic", &m.VIC, true)
	d.vic = m.VIC
	d.string("name", &m.Name, true)
	d.int("pixel_clock_khz", &m.PixelClockKHz, true)
	d.int("h_active", &m.HActive, true)
	d.int("h_front_porch", &m.HFrontPorch, true)
	d.int("h_sync", &m.HSync, true)
	d.int("h_back_porch", &m.HBackPorch, true)
	d.int("v_active", &m.VActive, true)
	d.int("v_front_porch", &m.VFrontPorch, true)
	d.int("v_sync", &m.VSync, true)
	d.int("v_back_porch", &m.VBackPorch, true)
	d.bool("interlaced", &m.Interlaced, true)
	d.polarity("h_polarity", &m.HPolarity)
	d.polarity("v_polarity", &m.VPolarity)
	d.bool("double_clocked", &m.DoubleClocked, false)
	d.string("aspect_ratio", &m.AspectRatio, false)
	d.int("ln", &m.Ln, false)

	if d.err != nil {
		return TimingMode{}, d.err
	}
	return m, nil
}

// recordDecoder decodes the fields of one record, keeping only the first
// error it encounters.
type recordDecoder struct {
	index int
	vic   int
	obj   map[string]json.RawMessage
	err   error
}

func (d *recordDecoder) fail(field, reason string) {
	if d.err == nil {
		d.err = &MalformedRecordError{Index: d.index, VIC: d.vic, Field: field, Reason: reason}
	}
}

// lookup returns the raw value of field, or nil if it is absent or null.
// A missing required field is recorded as an error.
func (d *recordDecoder) lookup(field string, required bool) json.RawMessage {
	if d.err != nil {
		return nil
	}
	raw, ok := d.obj[field]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if required {
			d.fail(field, "required field is missing")
		}
		return nil
	}
	return raw
}

func (d *recordDecoder) int(field string, dst *int, required bool) {
	raw := d.lookup(field, required)
	if raw == nil {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.fail(field, fmt.Sprintf("want integer, got %s", raw))
	}
}

func (d *recordDecoder) bool(field string, dst *bool, required bool) {
	raw := d.lookup(field, required)
	if raw == nil {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.fail(field, fmt.Sprintf("want boolean, got %s", raw))
	}
}

func (d *recordDecoder) string(field string, dst *string, required bool) {
	raw := d.lookup(field, required)
	if raw == nil {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.fail(field, fmt.Sprintf("want string, got %s", raw))
	}
}

func (d *recordDecoder) polarity(field string, dst *Polarity) {
	raw := d.lookup(field, false)
	if raw == nil {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.fail(field, err.Error())
	}
}
