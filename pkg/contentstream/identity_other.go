//go:build !linux && !darwin

package contentstream

import "os"

// platformIdentity has no device/inode pair to report on platforms without
// a POSIX stat structure; such streams are never deduplicated.
func platformIdentity(fi os.FileInfo) Identity {
	return Identity{}
}
