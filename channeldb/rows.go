package channeldb

// State name constants for the jit_channels.state column. These mirror
// jitchannel.State.String() exactly; channeldb does not import jitchannel
// to avoid a persistence <-> state-machine import cycle, so the state is
// carried here as the bare string spec.md §6 puts in the column.
const (
	StateNone      = "none"
	StateFunding   = "funding"
	StateOpen      = "open"
	StateMigrating = "migrating"
	StateClosed    = "closed"
)

// JITChannelRow is the on-disk representation of one jit_channels row.
type JITChannelRow struct {
	JITChannelID    uint32
	ClientIdx       uint64
	State           string
	FundingTxid     string
	FundingVout     uint32
	FundingAmount   uint64
	LocalAmount     uint64
	RemoteAmount    uint64
	CommitmentNum   uint64
	CreatedAt       int64
	CreatedBlock    uint32
	TargetFactoryID uint32
}

// BasepointRow is the on-disk representation of one basepoints row: the
// four local secrets this LSP holds for the channel and the four public
// basepoints the client announced for it, keyed by jit_channel_id.
type BasepointRow struct {
	JITChannelID uint32

	LocalPaymentSecret    [32]byte
	LocalDelaySecret      [32]byte
	LocalRevocationSecret [32]byte
	LocalHtlcSecret       [32]byte

	RemotePaymentPub    [33]byte
	RemoteDelayPub      [33]byte
	RemoteRevocationPub [33]byte
	RemoteHtlcPub       [33]byte
}
