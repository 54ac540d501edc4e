package roasted

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// keccak256("keccak256(utf8)")[:4], the LSP2 verification method id.
var verificationMethodID = []byte{0x6f, 0x35, 0x7c, 0x6a}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// EncodeVerifiableURI builds the LSP2 VerifiableURI byte value for a metadata
// document anchored at contentRef: a zero marker, the verification method id,
// the hash length, the keccak256 of the document JSON, and the ipfs URL.
func EncodeVerifiableURI(doc MetadataDocument, contentRef string) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	hash := keccak256(raw)

	out := make([]byte, 0, 2+4+2+32+7+len(contentRef))
	out = append(out, 0x00, 0x00)
	out = append(out, verificationMethodID...)
	out = append(out, 0x00, 0x20)
	out = append(out, hash...)
	out = append(out, []byte("ipfs://"+contentRef)...)
	return out, nil
}

// EncodeMintPayload packs the subject wallet and the verifiable metadata
// pointer into the single opaque bytes parameter the mint call expects.
// Pure and deterministic for a given document and addresses.
func EncodeMintPayload(subjectWallet string, doc MetadataDocument, contentRef string) ([]byte, error) {
	normalized, ok := NormalizeAddress(subjectWallet)
	if !ok {
		return nil, fmt.Errorf("invalid subject wallet %q", subjectWallet)
	}

	uri, err := EncodeVerifiableURI(doc, contentRef)
	if err != nil {
		return nil, err
	}

	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		return nil, err
	}
	bytesType, err := abi.NewType("bytes", "", nil)
	if err != nil {
		return nil, err
	}

	args := abi.Arguments{{Type: addressType}, {Type: bytesType}}
	return args.Pack(common.HexToAddress(normalized), uri)
}
