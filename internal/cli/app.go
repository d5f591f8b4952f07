package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/config"
	"github.com/dmitrijs2005/vaultkeeper/internal/filex"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/otp"
	"github.com/dmitrijs2005/vaultkeeper/internal/repositories/repomanager"
	"github.com/dmitrijs2005/vaultkeeper/internal/salt"
	"github.com/dmitrijs2005/vaultkeeper/internal/services"
)

type vaultService interface {
	Initialized(ctx context.Context) (bool, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error
	Status(ctx context.Context) (services.Status, error)
	Reset(ctx context.Context, password []byte) error
}

type passwordService interface {
	Load(ctx context.Context, password []byte) error
	Save(ctx context.Context, password []byte) error
	Lock()
	Unlocked() bool
	List() ([]models.PasswordEntry, error)
	Search(term string) ([]models.PasswordEntry, error)
	Get(id string) (models.PasswordEntry, error)
	Add(n models.NewPassword) (models.PasswordEntry, error)
	Update(id string, patch models.PasswordPatch) (models.PasswordEntry, error)
	Remove(id string) error
	DeleteAll() (int, error)
}

type twoFactorService interface {
	Load(ctx context.Context, password []byte) error
	Save(ctx context.Context, password []byte) error
	Lock()
	Unlocked() bool
	List() ([]models.TwoFactorAccount, error)
	Get(id string) (models.TwoFactorAccount, error)
	Add(acc otp.Account) (models.TwoFactorAccount, error)
	ImportURIs(uris []string) ([]models.TwoFactorAccount, []error)
	Remove(id string) error
	AdvanceCounter(id string) (models.TwoFactorAccount, error)
	Code(id string, now time.Time) (services.CodeResult, error)
	Codes(now time.Time) ([]services.CodeResult, error)
}

var _ commander = (*App)(nil)

type App struct {
	config    *config.Config
	log       logging.Logger
	db        *sql.DB
	vault     vaultService
	passwords passwordService
	twofa     twoFactorService

	// master is the master password while the vault is unlocked.
	master []byte

	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time
}

// NewApp opens the configured database, brings its schema up to date and
// wires the vault services. The caller must Close the App.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	repos, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	if repos.DriverName() == repomanager.DriverSQLite && c.DatabaseDSN == "" {
		dir, err := filex.EnsureDir(c.DataDir)
		if err != nil {
			return nil, fmt.Errorf("data dir: %w", err)
		}
		c.DataDir = dir
	}

	params, err := c.KDFParams()
	if err != nil {
		return nil, err
	}

	db, err := repomanager.Open(ctx, repos, c.DSN())
	if err != nil {
		log.Error(ctx, "error initializing database", "driver", repos.DriverName(), "error", err)
		return nil, err
	}

	salts := salt.NewManager(repos.Metadata(db), nil)
	vault := services.NewVault(db, repos, salts, params, log)

	return &App{
		config:    c,
		log:       log,
		db:        db,
		vault:     vault,
		passwords: services.NewPasswordStore(vault),
		twofa:     services.NewTwoFactorStore(vault),
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		now:       time.Now,
	}, nil
}

// Run starts the REPL and blocks until the user leaves.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to vaultkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
	a.lock()
}

// Close forgets the master password and closes the database.
func (a *App) Close() error {
	a.lock()
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) isUnlocked() bool {
	return a.master != nil
}

func (a *App) getStatus() string {
	if a.isUnlocked() {
		return "unlocked"
	}
	return "locked"
}

func (a *App) lock() {
	common.WipeByteArray(a.master)
	a.master = nil
	a.passwords.Lock()
	a.twofa.Lock()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
