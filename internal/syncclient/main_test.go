package syncclient

import (
	"os"
	"testing"

	"github.com/annel0/voxel-editor/internal/logging"
)

func TestMain(m *testing.M) {
	logging.Configure(logging.Options{ConsoleLevel: logging.ERROR, FileLevel: logging.ERROR})
	os.Exit(m.Run())
}
