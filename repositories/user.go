//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"unified-chat/domain"
	"unified-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	userPrefix     = "user:"
	usernamePrefix = "username:"
)

type IUserRepository interface {
	CreateUser(user domain.User) (domain.User, error)
	GetUserByUsername(username string) (domain.User, error)
	GetUserByID(id domain.UserID) (domain.User, error)
	UpdateUser(user domain.User) error
	ListUsers() ([]domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

func usernameKey(username string) []byte {
	return []byte(usernamePrefix + strings.ToLower(strings.TrimSpace(username)))
}

func userKey(id domain.UserID) []byte {
	return []byte(userPrefix + string(id))
}

// CreateUser assigns an id and a creation date, then persists the user.
// Usernames are unique, case-insensitively.
func (u UserRepository) CreateUser(user domain.User) (domain.User, error) {
	user.ID = domain.UserID(uuid.NewString())
	user.CreatedAt = time.Now().UTC()

	data, err := encode(fromUser(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := usernameKey(user.Username)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(key, []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(userKey(user.ID), data)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (u UserRepository) GetUserByUsername(username string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		user, err = getUser(txn, domain.UserID(id))
		return err
	})
	return user, notFound(err)
}

func (u UserRepository) GetUserByID(id domain.UserID) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	return user, notFound(err)
}

// UpdateUser overwrites the profile. The username cannot change.
func (u UserRepository) UpdateUser(user domain.User) error {
	data, err := encode(fromUser(user))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return notFound(u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(user.ID)); err != nil {
			return err
		}
		return txn.Set(userKey(user.ID), data)
	}))
}

// ListUsers returns every user sorted by username.
func (u UserRepository) ListUsers() ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte(userPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			r, err := decode(value)
			if err != nil {
				return err
			}
			user, err := toUser(r)
			if err != nil {
				return err
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(users, func(a, b domain.User) int { return strings.Compare(a.Username, b.Username) })
	return users, nil
}

func getUser(txn *badger.Txn, id domain.UserID) (domain.User, error) {
	item, err := txn.Get(userKey(id))
	if err != nil {
		return domain.User{}, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return domain.User{}, err
	}
	r, err := decode(value)
	if err != nil {
		return domain.User{}, err
	}
	return toUser(r)
}

func notFound(err error) error {
	if err == badger.ErrKeyNotFound {
		return errors.ErrUserNotFound
	}
	return err
}

func fromUser(user domain.User) record {
	return record{
		"id":                 string(user.ID),
		"username":           user.Username,
		"full_name":          user.FullName,
		"email":              user.Email,
		"password_hash":      user.PasswordHash,
		"student_id":         user.StudentID,
		"year_of_graduation": user.YearOfGraduation,
		"major":              user.Major,
		"school":             user.School,
		"online":             user.Online,
		"created_at":         formatTime(user.CreatedAt),
	}
}

func toUser(r record) (domain.User, error) {
	createdAt, err := r.time("created_at")
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		ID:               domain.UserID(r.str("id")),
		Username:         r.str("username"),
		FullName:         r.str("full_name"),
		Email:            r.str("email"),
		PasswordHash:     r.str("password_hash"),
		StudentID:        r.str("student_id"),
		YearOfGraduation: r.str("year_of_graduation"),
		Major:            r.str("major"),
		School:           r.str("school"),
		Online:           r.boolean("online"),
		CreatedAt:        createdAt,
	}
	if user.ID == "" || user.Username == "" {
		return domain.User{}, fmt.Errorf("%w: user without id or username", errors.ErrInvalidRecord)
	}
	return user, nil
}
