package message

// Ship is the player's current ship selection, as sent on the wire.
type Ship uint8

const (
	ShipWarbird Ship = iota
	ShipJavelin
	ShipSpider
	ShipLeviathan
	ShipTerrier
	ShipWeasel
	ShipLancaster
	ShipShark
	ShipSpectator
)

// NetworkValue returns the byte the wire protocol uses for this ship.
func (s Ship) NetworkValue() uint8 { return uint8(s) }
