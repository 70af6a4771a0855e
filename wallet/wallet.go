package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/pbkdf2"
)

const SALT_SIZE = 32

var (
	ErrBadPassword   = errors.New("wrong password or corrupted wallet file")
	ErrWalletExists  = errors.New("wallet already exists")
	ErrInvalidName   = errors.New("invalid wallet name")
	ErrNoSuchAddress = errors.New("address not found in wallet")
)

type Signer struct {
	Name string `json:"name"`
	Type string `json:"type"` // "mnemonics"
	SN   string `json:"sn"`   // hex entropy of the mnemonic
}

type Address struct {
	Name    string         `json:"name"`
	Address common.Address `json:"address"`
	Signer  string         `json:"signer"`
	Path    string         `json:"path"`
}

type Wallet struct {
	Name      string     `json:"name"`
	Signers   []*Signer  `json:"signers"`
	Addresses []*Address `json:"addresses"`
	Current   string     `json:"current"`

	filePath string
	password string
	mu       sync.Mutex
}

func walletPath(dir, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	return filepath.Join(dir, name), nil
}

func Exists(dir, name string) bool {
	p, err := walletPath(dir, name)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Create writes a new wallet holding one mnemonic signer and its first address.
func Create(dir, name, pass, phrase string) (*Wallet, error) {
	p, err := walletPath(dir, name)
	if err != nil {
		return nil, err
	}
	if Exists(dir, name) {
		return nil, ErrWalletExists
	}

	m, sn, err := FromPhrase(phrase)
	if err != nil {
		return nil, err
	}

	w := &Wallet{
		Name:     name,
		Signers:  []*Signer{{Name: "main", Type: "mnemonics", SN: sn}},
		filePath: p,
		password: pass,
	}

	if _, err := w.addAddress(m, "main"); err != nil {
		return nil, err
	}

	if err := w.Save(); err != nil {
		return nil, err
	}
	return w, nil
}

func Open(dir, name, pass string) (*Wallet, error) {
	p, err := walletPath(dir, name)
	if err != nil {
		return nil, err
	}

	w, err := OpenFromFile(p, pass)
	if err != nil {
		return nil, err
	}
	w.filePath = p
	w.password = pass
	return w, nil
}

func List(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Debug().Err(err).Msg("List: cannot read wallets folder")
		return nil
	}

	names := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func (w *Wallet) Save() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return SaveToFile(w, w.filePath, w.password)
}

func (w *Wallet) GetSigner(n string) *Signer {
	for _, s := range w.Signers {
		if s.Name == n {
			return s
		}
	}
	return nil
}

func (w *Wallet) GetAddress(a common.Address) *Address {
	for _, s := range w.Addresses {
		if s.Address == a {
			return s
		}
	}
	return nil
}

// CurrentAddress is the selected address, or the first one.
func (w *Wallet) CurrentAddress() *Address {
	if w.Current != "" && common.IsHexAddress(w.Current) {
		if a := w.GetAddress(common.HexToAddress(w.Current)); a != nil {
			return a
		}
	}
	if len(w.Addresses) > 0 {
		return w.Addresses[0]
	}
	return nil
}

// AddAddress derives the next address of the named signer.
func (w *Wallet) AddAddress(signer string) (*Address, error) {
	s := w.GetSigner(signer)
	if s == nil {
		return nil, fmt.Errorf("signer not found: %s", signer)
	}
	m, err := NewFromSN(s.SN)
	if err != nil {
		return nil, err
	}
	return w.addAddress(m, signer)
}

func (w *Wallet) addAddress(m *Mnemonic, signer string) (*Address, error) {
	n := 0
	for _, a := range w.Addresses {
		if a.Signer == signer {
			n++
		}
	}

	path := fmt.Sprintf(DefaultPath, n)
	addr, err := m.Address(path)
	if err != nil {
		return nil, err
	}

	a := &Address{
		Name:    fmt.Sprintf("%s-%d", signer, n),
		Address: addr,
		Signer:  signer,
		Path:    path,
	}
	w.Addresses = append(w.Addresses, a)
	if w.Current == "" {
		w.Current = addr.Hex()
	}
	return a, nil
}

func encrypt(data []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, data, nil), nil
}

func decrypt(data []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrBadPassword
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrBadPassword
	}

	return plaintext, nil
}

// generateKey derives a key from a password using PBKDF2
func generateKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, 4096, 32, sha256.New)
}

func SaveToFile(w *Wallet, file, pass string) error {
	jsonData, err := json.Marshal(w)
	if err != nil {
		log.Error().Msgf("Error marshaling JSON: %v", err)
		return err
	}

	salt := make([]byte, SALT_SIZE)
	if _, err = rand.Read(salt); err != nil {
		log.Error().Msgf("Error generating salt: %v", err)
		return err
	}

	encrypted, err := encrypt(jsonData, generateKey(pass, salt))
	if err != nil {
		log.Error().Msgf("Error encrypting data: %v", err)
		return err
	}

	err = os.WriteFile(file, append(salt, encrypted...), 0600)
	if err != nil {
		log.Error().Msgf("Error writing file: %v", err)
		return err
	}

	return nil
}

func OpenFromFile(file string, pass string) (*Wallet, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		log.Error().Msgf("Error reading file: %v", err)
		return nil, err
	}

	if len(data) < SALT_SIZE {
		return nil, ErrBadPassword
	}
	salt, data := data[:SALT_SIZE], data[SALT_SIZE:]

	decrypted, err := decrypt(data, generateKey(pass, salt))
	if err != nil {
		log.Error().Msgf("Error decrypting data: %v", err)
		return nil, err
	}

	w := &Wallet{}
	err = json.Unmarshal(decrypted, w)
	if err != nil {
		log.Error().Msgf("Error unmarshaling JSON: %v", err)
		return nil, err
	}

	return w, nil
}
