package checkpointer

import (
	"fmt"
	"time"
)

// FilenameEnumerator returns a function producing filenames with an
// incrementing integer suffix: name1.ext, name2.ext, and so on. The
// counter starts one past start.
func FilenameEnumerator(start int, name, extension string) func() string {
	i := start
	return func() string {
		i++
		return fmt.Sprintf("%v%v%v", name, i, extension)
	}
}

// FileTimer returns a function producing filenames suffixed with the
// current Unix time in nanoseconds
func FileTimer(name, extension string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v%v", name, time.Now().UnixNano(), extension)
	}
}
