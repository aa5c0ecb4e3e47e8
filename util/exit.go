package util

import "os"

const ExitCodeStartFailed = 101

// OsExit is swappable so tests can assert exit paths without dying.
var OsExit = os.Exit
