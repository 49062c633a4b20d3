package process

// Reader is the bounded remote-memory primitive.
//
// ReadMemory returns exactly the bytes the OS transferred: a short read yields
// fewer than size bytes and a nil error, a failed or empty transfer yields a
// *ReadError. Implementations must not panic on unmapped addresses.
type Reader interface {
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

	// PointerSize is 4 or 8, fixed for the lifetime of the reader.
	PointerSize() int
}

// Process is an opened, read-only handle on a live process.
type Process interface {
	Reader

	// GetPID returns the process ID
	GetPID() ProcessID

	// ModuleBase returns the load address of the main executable image.
	ModuleBase() (ProcessMemoryAddress, error)

	// Close closes the process and releases resources
	Close() error
}
