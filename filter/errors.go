package filter

import (
	"fmt"
)

type ErrTooManyWriters struct {
	MaxWriters uint
}

func (e ErrTooManyWriters) Error() string {
	return fmt.Sprintf("the filter already has the maximum of %d writers", e.MaxWriters)
}

type ErrNoFreeReaderSlot struct {
	ReaderID   PortID
	MaxReaders uint
}

func (e ErrNoFreeReaderSlot) Error() string {
	return fmt.Sprintf("unable to set reader %d: either the id is taken or the maximum of %d readers is reached", e.ReaderID, e.MaxReaders)
}

type ErrWriterAlreadyConnected struct {
	WriterID PortID
}

func (e ErrWriterAlreadyConnected) Error() string {
	return fmt.Sprintf("writer %d is already connected", e.WriterID)
}

type ErrWriterNotConnected struct {
	WriterID PortID
}

func (e ErrWriterNotConnected) Error() string {
	return fmt.Sprintf("writer %d is not connected, so its queue cannot be shared", e.WriterID)
}

type ErrReaderAlreadyConnected struct {
	ReaderID PortID
}

func (e ErrReaderAlreadyConnected) Error() string {
	return fmt.Sprintf("reader %d is already connected", e.ReaderID)
}

type ErrUnableToConnect struct {
	WriterID PortID
	ReaderID PortID
}

func (e ErrUnableToConnect) Error() string {
	return fmt.Sprintf("unable to connect writer %d to reader %d", e.WriterID, e.ReaderID)
}

type ErrUnknownAction struct {
	Action string
}

func (e ErrUnknownAction) Error() string {
	return fmt.Sprintf("unknown action '%s'", e.Action)
}

type ErrTooManySlaves struct{}

func (ErrTooManySlaves) Error() string {
	return fmt.Sprintf("a master cannot have more than %d slaves", MaxSlaves)
}

type ErrInvalidSlave struct {
	Reason string
}

func (e ErrInvalidSlave) Error() string {
	return fmt.Sprintf("invalid slave: %s", e.Reason)
}
