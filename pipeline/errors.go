package pipeline

import (
	"fmt"

	"github.com/xaionaro-go/mediagraph/filter"
)

type ErrFilterNotFound struct {
	FilterID filter.ID
}

func (e ErrFilterNotFound) Error() string {
	return fmt.Sprintf("filter %d not found", e.FilterID)
}

type ErrFilterAlreadyExists struct {
	FilterID filter.ID
}

func (e ErrFilterAlreadyExists) Error() string {
	return fmt.Sprintf("filter %d already exists", e.FilterID)
}

type ErrFilterInUse struct {
	FilterID filter.ID
	PathID   PathID
}

func (e ErrFilterInUse) Error() string {
	return fmt.Sprintf("filter %d is used by path %d", e.FilterID, e.PathID)
}

type ErrWorkerNotFound struct {
	WorkerID int
}

func (e ErrWorkerNotFound) Error() string {
	return fmt.Sprintf("worker %d not found", e.WorkerID)
}

type ErrWorkerAlreadyExists struct {
	WorkerID int
}

func (e ErrWorkerAlreadyExists) Error() string {
	return fmt.Sprintf("worker %d already exists", e.WorkerID)
}

type ErrFilterAlreadyAssigned struct {
	FilterID filter.ID
	WorkerID int
}

func (e ErrFilterAlreadyAssigned) Error() string {
	return fmt.Sprintf("filter %d is already assigned to worker %d", e.FilterID, e.WorkerID)
}

type ErrSlaveNotSchedulable struct {
	FilterID filter.ID
}

func (e ErrSlaveNotSchedulable) Error() string {
	return fmt.Sprintf("filter %d is a slave, it is run by its master", e.FilterID)
}

type ErrPathNotFound struct {
	PathID PathID
}

func (e ErrPathNotFound) Error() string {
	return fmt.Sprintf("path %d not found", e.PathID)
}

type ErrPathAlreadyExists struct {
	PathID PathID
}

func (e ErrPathAlreadyExists) Error() string {
	return fmt.Sprintf("path %d already exists", e.PathID)
}

type ErrPathAlreadyConnected struct {
	PathID PathID
}

func (e ErrPathAlreadyConnected) Error() string {
	return fmt.Sprintf("path %d is already connected", e.PathID)
}

type ErrConnectPath struct {
	PathID PathID
	Hop    Hop
	Err    error
}

func (e ErrConnectPath) Error() string {
	return fmt.Sprintf("unable to connect path %d at %s: %v", e.PathID, e.Hop, e.Err)
}

func (e ErrConnectPath) Unwrap() error {
	return e.Err
}

type ErrWorker struct {
	WorkerID int
	Err      error
}

func (e ErrWorker) Error() string {
	return fmt.Sprintf("worker %d: %v", e.WorkerID, e.Err)
}

func (e ErrWorker) Unwrap() error {
	return e.Err
}
