package entities

import "strings"

// WalletType is a supported wallet keyword
type WalletType string

const (
	WalletMetaMask      WalletType = "metamask"
	WalletWalletConnect WalletType = "walletconnect"
	WalletCoinbase      WalletType = "coinbase"
	WalletKeystore      WalletType = "keystore"
)

// SupportedWallets lists the wallet types a client may request
var SupportedWallets = []WalletType{WalletMetaMask, WalletWalletConnect, WalletCoinbase, WalletKeystore}

// ParseWalletType normalizes a wallet keyword
func ParseWalletType(s string) (WalletType, bool) {
	t := WalletType(strings.ToLower(strings.TrimSpace(s)))
	for _, w := range SupportedWallets {
		if w == t {
			return t, true
		}
	}
	return "", false
}

// WalletState is the local mirror of the wallet SDK. The SDK stays authoritative.
type WalletState struct {
	IsConnected bool    `json:"isConnected"`
	Address     *string `json:"address"`
	Balance     *string `json:"balance"`
	ChainID     *int64  `json:"chainId"`
	WalletType  *string `json:"walletType"`
}

// WalletView is WalletState plus the derived fields a client renders
type WalletView struct {
	WalletState
	IsConnecting     bool    `json:"isConnecting"`
	Error            *string `json:"error"`
	IsWrongNetwork   bool    `json:"isWrongNetwork"`
	TargetChainID    int64   `json:"targetChainId"`
	FormattedAddress *string `json:"formattedAddress"`
	FormattedBalance *string `json:"formattedBalance"`
}
