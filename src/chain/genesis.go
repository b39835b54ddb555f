package chain

// Genesis field values. Every valid chain starts with the block they describe.
const (
	GenesisPreviousHash = "0"
	GenesisTimestamp    = 1465154705
	GenesisData         = "my genesis block!!"
	GenesisHash         = "816534932c2b7154836da6afc367695e6337db8a921823784c14378abed4f7d7"
)

// Genesis returns the hard-coded first block.
func Genesis() Block {
	return Block{
		Index:        0,
		PreviousHash: GenesisPreviousHash,
		Timestamp:    GenesisTimestamp,
		Data:         GenesisData,
		Hash:         GenesisHash,
	}
}

// IsGenesis reports whether b is structurally equal to the genesis block.
func IsGenesis(b Block) bool {
	return b.Equal(Genesis())
}
