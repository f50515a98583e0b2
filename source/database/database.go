package database

// Hosts that want server-side sessions point a SessionStore at a SQL
// database; everything else in the runtime only sees it through the
// context.SessionHandler interface.

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	dctx "github.com/martin-dore/dace/source/context"

	// SQL drivers

	_ "github.com/go-sql-driver/mysql"    // MariaDB & MySQL
	_ "github.com/lib/pq"                 // Postgres
	_ "github.com/microsoft/go-mssqldb"   // SQL Server
	_ "github.com/nakagami/firebirdsql"   // Firebird
	_ "github.com/sijms/go-ora"           // Oracle
	_ "modernc.org/sqlite"                // SQLite
)

var (
	drivers = map[string]string{"Firebird SQL": "firebirdsql", "MariaDB": "mysql", "MySQL": "mysql",
		"Oracle": "oracle", "Postgres": "postgres", "SQL Server": "sqlserver", "SQLite": "sqlite"}
)

func GetDB(driver, host, port, db, user, password string) (*sql.DB, error) {

	connectionString := fmt.Sprintf("host=%v port=%v dbname=%v user=%v password=%v sslmode=disable",
		host, port, db, user, password)

	sqlObj, connectionError := sql.Open(drivers[driver], connectionString)
	if connectionError != nil {
		return nil, connectionError
	}

	err := sqlObj.Ping()

	if err != nil {
		return nil, err
	}

	return sqlObj, nil
}

func GetDriverOptions() string {
	result := "The following SQL drivers are available: \n\n"
	for k, v := range GetSortedDrivers() {
		result = result + fmt.Sprintf("  [%v] %v\n", k, v)
	}
	result = result + "\nPick a number"
	return result
}

func GetSortedDrivers() []string {
	dr := []string{}
	for k := range drivers {
		dr = append(dr, k)
	}
	sort.Strings(dr)
	return dr
}

// A SessionStore keeps one row per open request session, keyed by the
// request's context id, with a bcrypt hash of the session token so the raw
// token never touches the database.
type SessionStore struct {
	db    *sql.DB
	clock clockwork.Clock
}

func NewSessionStore(db *sql.DB, clock clockwork.Clock) *SessionStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionStore{db: db, clock: clock}
}

func (s *SessionStore) Initialize() error {
	query :=
		`CREATE TABLE IF NOT EXISTS _Sessions (
    contextId varchar(36),
    tokenHash varchar(60),
    openedAt varchar(32),
    closedAt varchar(32),
    abrupt BOOLEAN DEFAULT FALSE,
PRIMARY KEY (contextId));`
	_, err := s.db.Exec(query)
	return err
}

// Open records a session for the given context and returns the token the
// client must present to rejoin it.
func (s *SessionStore) Open(c *dctx.Context) (string, error) {
	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(`INSERT INTO _Sessions (contextId, tokenHash, openedAt) VALUES ($1, $2, $3)`,
		c.Id.String(), string(hash), s.clock.Now().UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return "", err
	}
	return token, nil
}

// CloseSession satisfies context.SessionHandler: at teardown the coordinator
// closes out the row for this request.
func (s *SessionStore) CloseSession(c *dctx.Context, abrupt bool) error {
	_, err := s.db.Exec(`UPDATE _Sessions SET closedAt = $1, abrupt = $2 WHERE contextId = $3`,
		s.clock.Now().UTC().Format("2006-01-02 15:04:05"), abrupt, c.Id.String())
	return err
}

// ValidateToken checks a presented token against the stored hash for a
// context.
func (s *SessionStore) ValidateToken(contextId, token string) (bool, error) {
	row := s.db.QueryRow(`SELECT tokenHash FROM _Sessions WHERE contextId = $1 AND closedAt IS NULL`, contextId)
	var hash string
	if err := row.Scan(&hash); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil, nil
}
