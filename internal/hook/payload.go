package hook

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"liquidityLaunch/internal/model"
)

var payloadArgs = mustPayloadArgs()

func mustPayloadArgs() abi.Arguments {
	uint256Ty, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	uint64Ty, err := abi.NewType("uint64", "", nil)
	if err != nil {
		panic(err)
	}
	int32Ty, err := abi.NewType("int32", "", nil)
	if err != nil {
		panic(err)
	}
	boolTy, err := abi.NewType("bool", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "totalAmount", Type: uint256Ty},
		{Name: "startTime", Type: uint64Ty},
		{Name: "endTime", Type: uint64Ty},
		{Name: "minTick", Type: int32Ty},
		{Name: "maxTick", Type: int32Ty},
		{Name: "isReleaseTokenFirst", Type: boolTy},
		{Name: "epochSize", Type: uint64Ty},
	}
}

// EncodePayload ABI-encodes the schedule and epoch size carried by pool
// initialization.
func EncodePayload(s model.Schedule, epochSize uint64) ([]byte, error) {
	total := s.TotalAmount
	if total == nil {
		total = big.NewInt(0)
	}
	data, err := payloadArgs.Pack(total, s.StartTime, s.EndTime, s.MinTick, s.MaxTick, s.IsReleaseTokenFirst, epochSize)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// DecodePayload reverses EncodePayload.
func DecodePayload(data []byte) (model.Schedule, uint64, error) {
	values, err := payloadArgs.Unpack(data)
	if err != nil {
		return model.Schedule{}, 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(values) != len(payloadArgs) {
		return model.Schedule{}, 0, fmt.Errorf("%w: %d values", ErrInvalidPayload, len(values))
	}
	total, ok1 := values[0].(*big.Int)
	start, ok2 := values[1].(uint64)
	end, ok3 := values[2].(uint64)
	minTick, ok4 := values[3].(int32)
	maxTick, ok5 := values[4].(int32)
	first, ok6 := values[5].(bool)
	epochSize, ok7 := values[6].(uint64)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !ok7 {
		return model.Schedule{}, 0, fmt.Errorf("%w: unexpected value types", ErrInvalidPayload)
	}
	return model.Schedule{
		TotalAmount:         total,
		StartTime:           start,
		EndTime:             end,
		MinTick:             minTick,
		MaxTick:             maxTick,
		IsReleaseTokenFirst: first,
	}, epochSize, nil
}
