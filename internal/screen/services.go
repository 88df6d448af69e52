package screen

import (
	"log/slog"

	"github.com/abhisek/quiznote/internal/bank"
	"github.com/abhisek/quiznote/internal/ledger"
	"github.com/abhisek/quiznote/internal/session"
	"github.com/abhisek/quiznote/internal/store"
)

// Services are the collaborators shared by every screen. The Machine is
// only ever driven from Update, never from a tea.Cmd goroutine.
type Services struct {
	Machine  *session.Machine
	Ledger   *ledger.Ledger
	Bank     *bank.Loader
	Settings *ledger.SettingsStore
	History  store.SessionEventRepo
	Logger   *slog.Logger
}
