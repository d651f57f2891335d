//go:build linux

package kernel

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const rlimInfinity = ^uint64(0)

// checkAllocatable rejects a request for size bytes that cannot be backed:
// it would not fit in the address space the process has left under
// RLIMIT_AS, or it exceeds RAM and swap combined. The runtime aborts the
// whole process on such an allocation instead of returning an error.
func checkAllocatable(size uint64) error {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_AS, &lim); err == nil && lim.Cur != rlimInfinity {
		used := addressSpaceInUse()
		if used >= lim.Cur || size > lim.Cur-used {
			return fmt.Errorf("%d bytes exceed the address space limit (%d of %d bytes in use)", size, used, lim.Cur)
		}
	}

	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err == nil {
		total := (uint64(info.Totalram) + uint64(info.Totalswap)) * uint64(info.Unit)
		if total > 0 && size > total {
			return fmt.Errorf("%d bytes exceed physical memory and swap (%d bytes)", size, total)
		}
	}
	return nil
}

// addressSpaceInUse returns the virtual size of the process in bytes, or 0
// when /proc is unavailable.
func addressSpaceInUse() uint64 {
	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return 0
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0
	}
	pages, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0
	}
	return pages * uint64(os.Getpagesize())
}
