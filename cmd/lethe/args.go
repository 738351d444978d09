package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseBlockSize parses a block size with an optional scale suffix:
// plain bytes ("4096"), kibibytes ("128k") or mebibytes ("2M"), case
// insensitive, with an optional trailing "b". The result must be a
// power of two.
func ParseBlockSize(s string) (uint32, error) {
	in := strings.TrimSpace(strings.ToLower(s))
	if in == "" {
		return 0, fmt.Errorf("use a number of bytes with optional scale (e.g. 4096, 128k or 2M)")
	}

	scale := uint64(1)
	in = strings.TrimSuffix(in, "b")
	switch {
	case strings.HasSuffix(in, "k"):
		scale = 1024
		in = strings.TrimSuffix(in, "k")
	case strings.HasSuffix(in, "m"):
		scale = 1024 * 1024
		in = strings.TrimSuffix(in, "m")
	}

	units, err := strconv.ParseUint(strings.TrimSpace(in), 10, 32)
	if err != nil || units == 0 {
		return 0, fmt.Errorf("use a number of bytes with optional scale (e.g. 4096, 128k or 2M)")
	}

	size := units * scale
	if size > 1<<31 {
		return 0, fmt.Errorf("block size %d is too large", size)
	}
	if size&(size-1) != 0 {
		return 0, fmt.Errorf("should be a power of two")
	}
	return uint32(size), nil
}

// askForConfirmation requires the literal word "yes" before anything
// irreversible happens.
func askForConfirmation() bool {
	fmt.Print("Are you sure? (type 'yes' to confirm): ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	return err == nil && strings.TrimSpace(line) == "yes"
}
