package game

import (
	"os"
	"testing"

	"github.com/Boharrisonabrams/happy-mahjong-local-sub000/common/log"
)

func TestMain(m *testing.M) {
	log.InitLog("test", "error")
	os.Exit(m.Run())
}
