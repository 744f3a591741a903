package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityLaunch/internal/config"
	"liquidityLaunch/internal/model"
	"liquidityLaunch/internal/release"
)

type curvePoint struct {
	Epoch           uint64 `json:"epoch"`
	Timestamp       uint64 `json:"timestamp"`
	TargetFloorTick int32  `json:"target_floor_tick"`
	AlignedFloor    int32  `json:"aligned_floor_tick"`
	TargetReleased  string `json:"target_released"`
	TargetFormatted string `json:"target_released_formatted"`
}

func runCurve(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	decimals, _ := cmd.Flags().GetUint8("decimals")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	schedule, epochSize, err := cfg.Schedule()
	if err != nil {
		return err
	}
	if schedule.EndTime < schedule.StartTime {
		return fmt.Errorf("end must not be before start")
	}

	ranges, err := release.SplitWindow(schedule.StartTime, schedule.EndTime, epochSize)
	if err != nil {
		return err
	}
	timestamps := make([]uint64, 0, len(ranges)+1)
	for _, r := range ranges {
		timestamps = append(timestamps, r.Start)
	}
	if last := timestamps[len(timestamps)-1]; last != schedule.EndTime {
		timestamps = append(timestamps, schedule.EndTime)
	}

	logger.Info("curve start",
		zap.Uint64("start", schedule.StartTime),
		zap.Uint64("end", schedule.EndTime),
		zap.Uint64("epoch_size", epochSize),
		zap.Int("points", len(timestamps)),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, ts := range timestamps {
		floor, err := release.TargetFloorTick(schedule, ts)
		if err != nil {
			return fmt.Errorf("target floor at %d: %w", ts, err)
		}
		amount, err := release.TargetReleasedAmount(schedule, ts)
		if err != nil {
			return fmt.Errorf("target amount at %d: %w", ts, err)
		}
		point := curvePoint{
			Epoch:           release.EpochFloor(ts, epochSize),
			Timestamp:       ts,
			TargetFloorTick: floor,
			AlignedFloor:    release.AlignFloor(floor, cfg.TickSpacing, schedule.IsReleaseTokenFirst),
			TargetReleased:  amount.String(),
			TargetFormatted: model.FormatTokenAmount(amount, decimals),
		}
		if err := enc.Encode(point); err != nil {
			return fmt.Errorf("write point: %w", err)
		}
	}
	return nil
}
