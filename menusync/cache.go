package menusync

import (
	"context"

	"github.com/mmdatafocus/menu_backend/config"
	"github.com/mmdatafocus/menu_backend/utils"
)

type redisSnapshotCache struct{}

func NewSnapshotCache() SnapshotCache {
	return redisSnapshotCache{}
}

// LoadSnapshot reads the three saved lists; a snapshot only counts as present
// when all three keys exist.
func (redisSnapshotCache) LoadSnapshot(ctx context.Context) (*Snapshot, bool, error) {
	var snap Snapshot

	menusExist, err := config.GetRedisObject(utils.ExcelMenuKey, &snap.Menus)
	if err != nil {
		return nil, false, err
	}
	submenusExist, err := config.GetRedisObject(utils.ExcelSubmenuKey, &snap.Submenus)
	if err != nil {
		return nil, false, err
	}
	dishesExist, err := config.GetRedisObject(utils.ExcelDishKey, &snap.Dishes)
	if err != nil {
		return nil, false, err
	}
	if !menusExist || !submenusExist || !dishesExist {
		return nil, false, nil
	}
	return &snap, true, nil
}

func (redisSnapshotCache) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if err := config.SetRedisObject(utils.ExcelMenuKey, snap.Menus, 0); err != nil {
		return err
	}
	if err := config.SetRedisObject(utils.ExcelSubmenuKey, snap.Submenus, 0); err != nil {
		return err
	}
	return config.SetRedisObject(utils.ExcelDishKey, snap.Dishes, 0)
}

func (redisSnapshotCache) DeleteSnapshot(ctx context.Context) error {
	return config.RemoveRedisKey(utils.ExcelMenuKey, utils.ExcelSubmenuKey, utils.ExcelDishKey)
}

func (redisSnapshotCache) RemoveKeys(ctx context.Context, keys ...string) error {
	return config.RemoveRedisKey(keys...)
}

func (redisSnapshotCache) RemoveByPrefix(ctx context.Context, prefix string) error {
	return config.RemoveRedisKeysByPrefix(ctx, prefix)
}
