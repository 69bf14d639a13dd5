package display

// MemoryBus is an in-memory Bus used by tests and by a headless bench
// build of the navigator: it records every command/data write instead of
// touching real hardware.
type MemoryBus struct {
	Commands []byte
	Writes   [][]byte
	Resets   int
}

// NewMemoryBus creates an empty recording bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) WriteCommand(cmd byte) error {
	b.Commands = append(b.Commands, cmd)
	return nil
}

func (b *MemoryBus) WriteData(data []byte) error {
	cp := append([]byte(nil), data...)
	b.Writes = append(b.Writes, cp)
	return nil
}

func (b *MemoryBus) Reset() error {
	b.Resets++
	return nil
}

func (b *MemoryBus) WaitUntilIdle() error {
	return nil
}
