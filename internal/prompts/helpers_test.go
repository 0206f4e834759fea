package prompts

import "errors"

// memKV is an in-memory KV with switchable failures.
type memKV struct {
	values    map[string]string
	failGet   bool
	failSet   bool
	failDel   bool
	setCalls  int
	lastWrite string
}

func newMemKV() *memKV {
	return &memKV{values: map[string]string{}}
}

var errDiskFull = errors.New("quota exceeded")

func (m *memKV) Get(key string) (string, error) {
	if m.failGet {
		return "", errDiskFull
	}
	return m.values[key], nil
}

func (m *memKV) Set(key, value string) error {
	m.setCalls++
	if m.failSet {
		return errDiskFull
	}
	m.values[key] = value
	m.lastWrite = value
	return nil
}

func (m *memKV) Delete(key string) error {
	if m.failDel {
		return errDiskFull
	}
	delete(m.values, key)
	return nil
}

func testOptions() Options {
	return Options{
		WorkingDirectory:    "/proj",
		AllowedHTMLElements: []string{"b", "i"},
		ModificationTagName: "mods",
	}
}
