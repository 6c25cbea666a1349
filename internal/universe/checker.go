package universe

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCAccountChecker verifies mint accounts against a Solana RPC node.
type RPCAccountChecker struct {
	client *rpc.Client
}

// NewRPCAccountChecker creates an AccountChecker against the given endpoint.
func NewRPCAccountChecker(endpoint string) *RPCAccountChecker {
	return &RPCAccountChecker{client: rpc.New(endpoint)}
}

// AccountExists reports whether the mint parses as a public key and resolves
// to an on-chain account with data.
func (c *RPCAccountChecker) AccountExists(ctx context.Context, mint string) (bool, error) {
	pubkey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		// Not an RPC failure: the address itself is malformed.
		return false, nil
	}

	out, err := c.client.GetAccountInfo(ctx, pubkey)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if out.Value == nil || len(out.Value.Data.GetBinary()) == 0 {
		return false, nil
	}
	return true, nil
}
