package output

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tanq16/chunkr/internal/manager"
	"github.com/tanq16/chunkr/internal/utils"
)

// PrintSummary writes one line per result and returns the number of
// failures. Files whose size could not be determined are marked as warnings.
func PrintSummary(w io.Writer, results ...[]manager.Result) int {
	failed := 0
	for _, group := range results {
		for _, r := range group {
			elapsed := FDebug(r.Elapsed.Round(time.Millisecond).String())
			if r.Err != nil {
				failed++
				symbol, style := StyleSymbols["fail"], FError
				if errors.Is(r.Err, utils.ErrSizeUnknown) {
					symbol, style = StyleSymbols["warning"], FWarning
				}
				fmt.Fprintf(w, "  %s %s %s %s\n", style(symbol), elapsed,
					style(r.Request.URL), style(fmt.Sprintf("[%s] %v", utils.Kind(r.Err), r.Err)))
				continue
			}
			size := ""
			if info, err := r.File.Stat(); err == nil {
				size = FDebug(FormatBytes(uint64(info.Size())))
			}
			fmt.Fprintf(w, "  %s %s %s %s %s\n", FSuccess(StyleSymbols["pass"]), elapsed,
				FSuccess(r.Request.Path), StyleSymbols["arrow"], size)
		}
	}
	return failed
}

// SizeUnknown counts results that failed because the file size could not
// be determined.
func SizeUnknown(results ...[]manager.Result) int {
	n := 0
	for _, group := range results {
		for _, r := range group {
			if errors.Is(r.Err, utils.ErrSizeUnknown) {
				n++
			}
		}
	}
	return n
}
