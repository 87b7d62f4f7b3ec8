// Package version хранит сведения о сборке, заполняемые через -ldflags.
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки по отдельности.
func Info() (v, c, d string) { return version, commit, date }

// String собирает краткое описание сборки для health-ответа и логов запуска.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
