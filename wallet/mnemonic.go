package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/rs/zerolog/log"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

const DefaultPath = "m/44'/60'/0'/0/%d"

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

type Mnemonic struct {
	MasterKey *bip32.Key
}

// NewPhrase generates a fresh 24 word mnemonic.
func NewPhrase() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// FromPhrase validates a mnemonic and returns it with its serialized form.
func FromPhrase(phrase string) (*Mnemonic, string, error) {
	phrase = strings.Join(strings.Fields(phrase), " ")
	if !bip39.IsMnemonicValid(phrase) {
		return nil, "", ErrInvalidMnemonic
	}
	entropy, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil {
		return nil, "", ErrInvalidMnemonic
	}
	sn := hex.EncodeToString(entropy)
	m, err := NewFromSN(sn)
	return m, sn, err
}

func NewFromSN(SN string) (*Mnemonic, error) {
	entropy, err := hex.DecodeString(SN)
	if err != nil {
		log.Error().Msgf("NewFromSN: Error decoding entropy: %v", err)
		return nil, err
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		log.Error().Msgf("NewFromSN: Error creating mnemonic: %v", err)
		return nil, err
	}

	seed := bip39.NewSeed(mnemonic, "")
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		log.Error().Msgf("NewFromSN: Error creating master key: %v", err)
		return nil, err
	}

	return &Mnemonic{MasterKey: masterKey}, nil
}

// DeriveKey derives a private key from the master key along path.
func DeriveKey(masterKey *bip32.Key, path string) (*ecdsa.PrivateKey, error) {
	derivationPath, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}

	key := masterKey
	for _, n := range derivationPath {
		key, err = key.NewChildKey(n)
		if err != nil {
			return nil, err
		}
	}

	return crypto.ToECDSA(common.LeftPadBytes(key.Key, 32))
}

func (m *Mnemonic) Key(path string) (*ecdsa.PrivateKey, error) {
	return DeriveKey(m.MasterKey, path)
}

func (m *Mnemonic) Address(path string) (common.Address, error) {
	key, err := m.Key(path)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

func SignTx(key *ecdsa.PrivateKey, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		log.Error().Msgf("SignTx: Failed to sign transaction: %v", err)
		return nil, err
	}
	return signed, nil
}

// SignTypedData signs an EIP-712 message. v is 27 or 28.
func SignTypedData(key *ecdsa.PrivateKey, typedData apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		log.Error().Msgf("SignTypedData: Failed to hash typed data: %v", err)
		return nil, err
	}

	signature, err := crypto.Sign(hash, key)
	if err != nil {
		log.Error().Msgf("SignTypedData: Failed to sign hash: %v", err)
		return nil, err
	}
	signature[64] += 27

	return signature, nil
}
