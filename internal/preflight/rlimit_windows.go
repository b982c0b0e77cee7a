//go:build windows

package preflight

// checkFileDescriptors has no rlimit to read on Windows.
func checkFileDescriptors() Check {
	return Check{
		Name:    "file_descriptors",
		Passed:  true,
		Message: "no limit on this platform",
	}
}
