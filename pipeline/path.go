package pipeline

import (
	"fmt"

	"github.com/xaionaro-go/mediagraph/filter"
)

type PathID int

// GeneratePortID asks for a port id generated by the filter itself.
const GeneratePortID = filter.PortID(-1)

// Path is a chain of filters: the origin, the intermediate filters and the
// destination.
type Path struct {
	ID                  PathID
	OriginID            filter.ID
	OriginWriterID      filter.PortID
	DestinationID       filter.ID
	DestinationReaderID filter.PortID
	MidIDs              []filter.ID

	// Hops is set when the path is connected.
	Hops []Hop
}

func (p *Path) String() string {
	return fmt.Sprintf("Path(%d: %d -> %v -> %d)", p.ID, p.OriginID, p.MidIDs, p.DestinationID)
}

// FilterIDs returns the ids of the filters of the path, from the origin to
// the destination.
func (p *Path) FilterIDs() []filter.ID {
	ids := make([]filter.ID, 0, len(p.MidIDs)+2)
	ids = append(ids, p.OriginID)
	ids = append(ids, p.MidIDs...)
	ids = append(ids, p.DestinationID)
	return ids
}

func (p *Path) IsConnected() bool {
	return len(p.Hops) > 0
}

func (p *Path) uses(id filter.ID) bool {
	for _, fID := range p.FilterIDs() {
		if fID == id {
			return true
		}
	}
	return false
}

// Hop is a single connection of a Path.
type Hop struct {
	From     filter.ID
	WriterID filter.PortID
	To       filter.ID
	ReaderID filter.PortID
}

func (h Hop) String() string {
	return fmt.Sprintf("%d:%d -> %d:%d", h.From, h.WriterID, h.To, h.ReaderID)
}
