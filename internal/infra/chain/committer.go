package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/roastedworld/roasted/internal/domain"
)

var tracer = otel.Tracer("chain")

const roastedABI = `[
  {"type":"function","name":"mint","stateMutability":"payable","inputs":[{"name":"to","type":"address"},{"name":"force","type":"bool"},{"name":"data","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"setRoastPrice","stateMutability":"nonpayable","inputs":[{"name":"price","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"tipRoast","stateMutability":"payable","inputs":[{"name":"tokenId","type":"bytes32"}],"outputs":[]},
  {"type":"function","name":"roastPrices","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"userBalances","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

// Committer submits writes against the fixed roast contract and polls for
// their confirmation. All write paths go through the same Submit and
// AwaitConfirmation pair.
type Committer struct {
	client       *ethclient.Client
	contract     common.Address
	abi          abi.ABI
	key          *ecdsa.PrivateKey
	from         common.Address
	chainID      *big.Int
	confirmAfter time.Duration
	pollEvery    time.Duration
}

func NewCommitter(rpcEndpoint, contractAddress, privateKey string, chainID int64, confirmTimeout time.Duration) (*Committer, error) {
	client, err := ethclient.Dial(rpcEndpoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial rpc endpoint")
	}

	parsed, err := abi.JSON(strings.NewReader(roastedABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse contract abi")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}

	if confirmTimeout <= 0 {
		confirmTimeout = 2 * time.Minute
	}

	return &Committer{
		client:       client,
		contract:     common.HexToAddress(contractAddress),
		abi:          parsed,
		key:          key,
		from:         crypto.PubkeyToAddress(key.PublicKey),
		chainID:      big.NewInt(chainID),
		confirmAfter: confirmTimeout,
		pollEvery:    2 * time.Second,
	}, nil
}

// Submit signs and broadcasts a contract call, returning the pending
// transaction handle. A returned handle never implies eventual success.
func (c *Committer) Submit(ctx context.Context, method string, value *big.Int, args ...any) (domain.TxHandle, error) {
	ctx, span := tracer.Start(ctx, "Chain.Committer.Submit")
	defer span.End()

	input, err := c.pack(method, args...)
	if err != nil {
		span.RecordError(err)
		return "", domain.SubmissionError{Method: method, Err: err}
	}

	if value == nil {
		value = big.NewInt(0)
	}

	nonce, err := c.client.PendingNonceAt(ctx, c.from)
	if err != nil {
		span.RecordError(err)
		return "", domain.SubmissionError{Method: method, Err: errors.Wrap(err, "failed to fetch nonce")}
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		span.RecordError(err)
		return "", domain.SubmissionError{Method: method, Err: errors.Wrap(err, "failed to fetch gas price")}
	}

	gasLimit, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
		From:     c.from,
		To:       &c.contract,
		Value:    value,
		Data:     input,
		GasPrice: gasPrice,
	})
	if err != nil {
		span.RecordError(err)
		return "", domain.SubmissionError{Method: method, Err: errors.Wrap(err, "gas estimation failed")}
	}

	tx := types.NewTransaction(nonce, c.contract, value, gasLimit, gasPrice, input)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		span.RecordError(err)
		return "", domain.SubmissionError{Method: method, Err: errors.Wrap(err, "signing failed")}
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		span.RecordError(err)
		return "", domain.SubmissionError{Method: method, Err: err}
	}

	return domain.TxHandle(signed.Hash().Hex()), nil
}

// AwaitConfirmation polls for the receipt of a submitted transaction until
// the committer's timeout. A reverted transaction is a failure.
func (c *Committer) AwaitConfirmation(ctx context.Context, handle domain.TxHandle) (domain.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Chain.Committer.AwaitConfirmation")
	defer span.End()

	hash := common.HexToHash(string(handle))
	deadline := time.Now().Add(c.confirmAfter)
	ticker := time.NewTicker(c.pollEvery)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				err := domain.ConfirmationError{TxHash: string(handle), Reason: "transaction reverted"}
				span.RecordError(err)
				return domain.Receipt{}, err
			}
			return domain.Receipt{
				TxHash:      string(handle),
				BlockNumber: receipt.BlockNumber.Uint64(),
				Status:      receipt.Status,
			}, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			span.RecordError(err)
			return domain.Receipt{}, domain.ConfirmationError{TxHash: string(handle), Reason: err.Error()}
		}

		if time.Now().After(deadline) {
			err := domain.ConfirmationError{TxHash: string(handle), Reason: "confirmation timed out"}
			span.RecordError(err)
			return domain.Receipt{}, err
		}

		select {
		case <-ctx.Done():
			return domain.Receipt{}, domain.ConfirmationError{TxHash: string(handle), Reason: ctx.Err().Error()}
		case <-ticker.C:
		}
	}
}

// ReadBigInt performs a read-only contract call returning a single uint256.
// Empty return data decodes to zero, matching how the contract's default
// mappings behave for unset keys.
func (c *Committer) ReadBigInt(ctx context.Context, method string, args ...any) (*big.Int, error) {
	ctx, span := tracer.Start(ctx, "Chain.Committer.ReadBigInt")
	defer span.End()

	input, err := c.pack(method, args...)
	if err != nil {
		span.RecordError(err)
		return nil, domain.ReadError{Method: method, Err: err}
	}

	output, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: input}, nil)
	if err != nil {
		span.RecordError(err)
		return nil, domain.ReadError{Method: method, Err: err}
	}
	if len(output) == 0 {
		return big.NewInt(0), nil
	}

	values, err := c.abi.Unpack(method, output)
	if err != nil {
		span.RecordError(err)
		return nil, domain.ReadError{Method: method, Err: err}
	}
	result, ok := values[0].(*big.Int)
	if !ok {
		return nil, domain.ReadError{Method: method, Err: fmt.Errorf("unexpected return type %T", values[0])}
	}
	return result, nil
}

// pack coerces loosely-typed arguments (wallet addresses and token ids
// arrive as strings) onto the ABI's expected Go types before packing.
func (c *Committer) pack(method string, args ...any) ([]byte, error) {
	m, ok := c.abi.Methods[method]
	if !ok {
		return nil, fmt.Errorf("unknown contract method %q", method)
	}
	if len(args) != len(m.Inputs) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", method, len(m.Inputs), len(args))
	}

	coerced := make([]any, len(args))
	for i, arg := range args {
		value, err := coerceABIValue(m.Inputs[i].Type, arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i, method, err)
		}
		coerced[i] = value
	}
	return c.abi.Pack(method, coerced...)
}

func coerceABIValue(t abi.Type, arg any) (any, error) {
	switch t.String() {
	case "address":
		s, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("expected address string, got %T", arg)
		}
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	case "bytes32":
		switch v := arg.(type) {
		case string:
			return common.HexToHash(v), nil
		case [32]byte:
			return v, nil
		case common.Hash:
			return v, nil
		}
		return nil, fmt.Errorf("expected bytes32, got %T", arg)
	default:
		return arg, nil
	}
}
