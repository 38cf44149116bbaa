package authstub

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/asset-console/internal/domain"
)

var (
	errUnknownAccount = errors.New("unknown account")
	errWrongPassword  = errors.New("wrong password")
)

// Account is a seeded operator.
type Account struct {
	Email        string
	PasswordHash string
	Role         domain.Role
}

// setPassword replaces the stored hash with a bcrypt hash of plain.
func (acc *Account) setPassword(plain string, cost int) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return err
	}
	acc.PasswordHash = string(hashed)
	return nil
}

// checkPassword reports errWrongPassword unless plain matches the stored hash.
func (acc Account) checkPassword(plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(plain)); err != nil {
		return errWrongPassword
	}
	return nil
}

// Accounts is an in-memory account directory.
type Accounts struct {
	mu     sync.RWMutex
	byMail map[string]Account
	cost   int
}

// NewAccounts returns an empty directory hashing with the given bcrypt cost.
func NewAccounts(cost int) *Accounts {
	return &Accounts{byMail: make(map[string]Account), cost: cost}
}

// Add registers or replaces an account.
func (a *Accounts) Add(email, password string, role domain.Role) error {
	acc := Account{Email: email, Role: role}
	if err := acc.setPassword(password, a.cost); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byMail[email] = acc
	return nil
}

// Authenticate checks credentials and returns the account.
func (a *Accounts) Authenticate(email, password string) (Account, error) {
	a.mu.RLock()
	acc, ok := a.byMail[email]
	a.mu.RUnlock()
	if !ok {
		return Account{}, errUnknownAccount
	}
	if err := acc.checkPassword(password); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (a *Accounts) ChangePassword(email, current, next string) error {
	acc, err := a.Authenticate(email, current)
	if err != nil {
		return err
	}
	if err := acc.setPassword(next, a.cost); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byMail[email] = acc
	return nil
}
