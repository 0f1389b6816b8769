package sealevel

const (
	CUSystemProgramDefaultComputeUnits = 150
	CUBuiltinDefaultComputeUnits       = 150
	CULogUnits                         = 100
)
