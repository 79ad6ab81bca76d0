package dma

import "errors"

// Errors returned when a descriptor does not fit the register fields.
var (
	ErrLengthOutOfRange = errors.New("dma: length does not fit 16 bits")
	ErrStrideOutOfRange = errors.New("dma: 2D stride does not fit 16 bits")
	ErrInvalidDim       = errors.New("dma: invalid dimensionality")
	ErrInvalidRoute     = errors.New("dma: invalid route")
)
