package channeldb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestPersistJITSaveLoad covers scenario S6: save a single OPEN jit
// channel and confirm it comes back byte-for-byte.
func TestPersistJITSaveLoad(t *testing.T) {
	db := openTestDB(t)

	row := JITChannelRow{
		JITChannelID:  0x8001,
		ClientIdx:     1,
		State:         StateOpen,
		FundingTxid:   "aabb",
		FundingVout:   0,
		FundingAmount: 50000,
		LocalAmount:   20000,
		RemoteAmount:  20000,
		CommitmentNum: 3,
		CreatedAt:     1700000000,
		CreatedBlock:  100,
	}
	require.NoError(t, db.SaveJITChannel(row))

	loaded, err := db.LoadJITChannels()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, uint32(0x8001), loaded[0].JITChannelID)
	require.Equal(t, uint64(1), loaded[0].ClientIdx)
	require.Equal(t, StateOpen, loaded[0].State)
	require.Equal(t, uint64(50000), loaded[0].FundingAmount)
	require.Equal(t, uint64(20000), loaded[0].LocalAmount)
	require.Equal(t, uint64(20000), loaded[0].RemoteAmount)
	require.Equal(t, uint64(3), loaded[0].CommitmentNum)
	require.Equal(t, uint32(100), loaded[0].CreatedBlock)
}

func TestPersistJITUpdate(t *testing.T) {
	db := openTestDB(t)

	row := JITChannelRow{
		JITChannelID:  0x8002,
		ClientIdx:     2,
		State:         StateOpen,
		FundingAmount: 40000,
		LocalAmount:   15000,
		RemoteAmount:  15000,
	}
	require.NoError(t, db.SaveJITChannel(row))

	require.NoError(t, db.UpdateJITState(0x8002, StateMigrating))
	require.NoError(t, db.UpdateJITBalance(0x8002, 10000, 20000, 5))

	loaded, err := db.LoadJITChannels()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, StateMigrating, loaded[0].State)
	require.Equal(t, uint64(10000), loaded[0].LocalAmount)
	require.Equal(t, uint64(20000), loaded[0].RemoteAmount)
	require.Equal(t, uint64(5), loaded[0].CommitmentNum)
}

func TestPersistJITDelete(t *testing.T) {
	db := openTestDB(t)

	row := JITChannelRow{
		JITChannelID: 0x8003,
		ClientIdx:    3,
		State:        StateOpen,
	}
	require.NoError(t, db.SaveJITChannel(row))
	require.NoError(t, db.DeleteJITChannel(0x8003))

	loaded, err := db.LoadJITChannels()
	require.NoError(t, err)
	require.Len(t, loaded, 0)
}

func TestPersistJITUpdateUnknownChannel(t *testing.T) {
	db := openTestDB(t)
	err := db.UpdateJITState(0x9999, StateClosed)
	require.Error(t, err)
}

// TestJITPersistReloadActive covers the OPEN-channel reload path,
// including basepoints, property 7 (reload fidelity).
func TestJITPersistReloadActive(t *testing.T) {
	db := openTestDB(t)

	row := JITChannelRow{
		JITChannelID:  0x8003,
		ClientIdx:     3,
		State:         StateOpen,
		FundingAmount: 75000,
		LocalAmount:   30000,
		RemoteAmount:  35000,
		CommitmentNum: 2,
		CreatedAt:     1700000000,
	}
	require.NoError(t, db.SaveJITChannel(row))

	var bp BasepointRow
	bp.JITChannelID = 0x8003
	for i := range bp.LocalPaymentSecret {
		bp.LocalPaymentSecret[i] = byte(0x10 + i%16)
	}
	for i := range bp.RemotePaymentPub {
		bp.RemotePaymentPub[i] = byte(0x30 + i%16)
	}
	require.NoError(t, db.SaveBasepoints(bp))

	loaded, err := db.LoadJITChannels()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, StateOpen, loaded[0].State)
	require.Equal(t, uint32(0x8003), loaded[0].JITChannelID)
	require.Equal(t, uint64(30000), loaded[0].LocalAmount)

	loadedBp, err := db.LoadBasepoints(0x8003)
	require.NoError(t, err)
	require.NotEqual(t, [32]byte{}, loadedBp.LocalPaymentSecret)
}

// TestJITPersistSkipClosed covers the reload contract's handling of
// CLOSED rows: they still load, but reconnect logic must skip
// reactivating them.
func TestJITPersistSkipClosed(t *testing.T) {
	db := openTestDB(t)

	row := JITChannelRow{
		JITChannelID:  0x8004,
		ClientIdx:     0,
		State:         StateClosed,
		FundingAmount: 50000,
	}
	require.NoError(t, db.SaveJITChannel(row))

	loaded, err := db.LoadJITChannels()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, StateClosed, loaded[0].State)

	var toActivate []JITChannelRow
	for _, r := range loaded {
		if r.State == StateOpen {
			toActivate = append(toActivate, r)
		}
	}
	require.Len(t, toActivate, 0)
}

func TestBasepointsNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.LoadBasepoints(0x1234)
	require.Error(t, err)
}

func TestLoadJITChannelsEmpty(t *testing.T) {
	db := openTestDB(t)
	loaded, err := db.LoadJITChannels()
	require.NoError(t, err)
	require.Len(t, loaded, 0)
}
