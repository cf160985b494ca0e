package msg

// Server message opcodes used by demo streams.
const (
	SvcBad              byte = 0
	SvcNop              byte = 1
	SvcDisconnect       byte = 2
	SvcUpdateStat       byte = 3
	SvcPrint            byte = 8
	SvcStuffText        byte = 9
	SvcServerData       byte = 11
	SvcLightStyle       byte = 12
	SvcUpdateFrags      byte = 14
	SvcSpawnStatic      byte = 20
	SvcSpawnBaseline    byte = 22
	SvcSpawnStaticSound byte = 29
	SvcCDTrack          byte = 32
	SvcUpdatePing       byte = 36
	SvcUpdateEnterTime  byte = 37
	SvcUpdateStatLong   byte = 38
	SvcUpdateUserInfo   byte = 40
	SvcModelList        byte = 45
	SvcSoundList        byte = 46
	SvcUpdatePL         byte = 53
)

// Print levels.
const (
	PrintLow    byte = 0
	PrintMedium byte = 1
	PrintHigh   byte = 2
	PrintChat   byte = 3
)

const (
	// ProtocolVersion is the QuakeWorld network protocol written to serverdata.
	ProtocolVersion = 28

	// MaxMsgLen is the largest reliable message a server sends.
	MaxMsgLen = 1450

	// MaxNetMessage is the capacity of the receive buffer; longer demo
	// messages cannot be applied.
	MaxNetMessage = 8192

	MaxClients     = 32
	MaxLightStyles = 64
	MaxStats       = 32
	MaxEdicts      = 512
)
