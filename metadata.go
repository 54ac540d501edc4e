package roasted

import (
	"math/big"
	"strings"
)

// Attribute keys the feed join depends on. The indexer surfaces these
// verbatim, so the exact key strings are part of the wire contract.
const (
	AttrRoaster   = "Roaster"
	AttrRoastee   = "Roastee Address"
	AttrRoast     = "Roast"
	AttrRoastType = "Roast Type"
	AttrPrice     = "Price"

	AttributeTypeString = "string"
)

// Roast origin values recorded in the "Roast Type" attribute.
const (
	OriginCustom = "custom"
	OriginAI     = "ai"
)

// MetadataDocument is the LSP4-shaped document anchored for every minted roast.
type MetadataDocument struct {
	LSP4Metadata Metadata `json:"LSP4Metadata"`
}

type Metadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Links       []Link      `json:"links"`
	Attributes  []Attribute `json:"attributes"`
	Images      [][]Image   `json:"images"`
	Icon        []Image     `json:"icon"`
	Assets      []any       `json:"assets"`
}

type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Image struct {
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	URL          string        `json:"url"`
	Verification *Verification `json:"verification,omitempty"`
}

type Verification struct {
	Method string `json:"method"`
	Data   string `json:"data"`
}

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"attributeType"`
}

// Collection artwork pinned once; every roast references the same image.
var defaultArtwork = Verification{
	Method: "keccak256(utf8)",
	Data:   "0x179e9c390b0eff19d6494fccca44093a7ee800857a21ce1afe22ba754b300269",
}

const defaultArtworkURL = "ipfs://bafybeifvcf5f4m4cfkvfht6hvbfltojen3nnd7s2n5y2p4hhfyh2jmd24m"

// NewRoastMetadata assembles the metadata document for a roast. Assembly is
// deterministic: the same draft fields always produce the same document.
func NewRoastMetadata(authorWallet, subjectWallet, text, origin, price string) MetadataDocument {
	verification := defaultArtwork
	return MetadataDocument{
		LSP4Metadata: Metadata{
			Name:        "Roast NFT",
			Description: text,
			Links:       []Link{{Title: "Website", URL: "https://roasted.xyz"}},
			Attributes: []Attribute{
				{Key: AttrRoaster, Value: authorWallet, Type: AttributeTypeString},
				{Key: AttrRoastee, Value: subjectWallet, Type: AttributeTypeString},
				{Key: AttrRoast, Value: text, Type: AttributeTypeString},
				{Key: AttrRoastType, Value: origin, Type: AttributeTypeString},
				{Key: AttrPrice, Value: price, Type: AttributeTypeString},
			},
			Images: [][]Image{{
				{Width: 1024, Height: 1024, URL: defaultArtworkURL, Verification: &verification},
			}},
			Icon: []Image{
				{Width: 256, Height: 256, URL: defaultArtworkURL, Verification: &verification},
			},
			Assets: []any{},
		},
	}
}

// FindStringAttribute returns the value of the first attribute with the given
// key and string type.
func FindStringAttribute(attrs []Attribute, key string) (string, bool) {
	for _, attr := range attrs {
		if attr.Type == AttributeTypeString && attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

var weiPerCoin = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// DecimalToWei parses a decimal coin string ("0.05") into wei.
func DecimalToWei(s string) (*big.Int, bool) {
	if strings.HasPrefix(s, "-") {
		return nil, false
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 18 {
		return nil, false
	}
	frac += strings.Repeat("0", 18-len(frac))

	wholeInt, ok := new(big.Int).SetString(whole, 10)
	if !ok || wholeInt.Sign() < 0 {
		return nil, false
	}
	fracInt, ok := new(big.Int).SetString(frac, 10)
	if !ok {
		return nil, false
	}
	return fracInt.Add(fracInt, wholeInt.Mul(wholeInt, weiPerCoin)), true
}

// WeiToDecimal formats a wei amount as a decimal coin string, trimming
// trailing zeros ("50000000000000000" -> "0.05").
func WeiToDecimal(wei *big.Int) string {
	if wei == nil || wei.Sign() == 0 {
		return "0"
	}
	whole := new(big.Int)
	frac := new(big.Int)
	whole.DivMod(wei, weiPerCoin, frac)
	if frac.Sign() == 0 {
		return whole.String()
	}
	fracStr := strings.TrimRight(
		strings.Repeat("0", 18-len(frac.String()))+frac.String(), "0")
	return whole.String() + "." + fracStr
}
