package registry

import (
	"fmt"
	"sort"
)

// Index 连接索引：连接→玩家、玩家→房间、房间→玩家集合
//
// 本身不加锁，由 Registry 的互斥锁保护。所有删除路径都会同时更新相关的表。
type Index struct {
	connPlayer  map[string]string
	playerConn  map[string]string // connPlayer 的反向表
	playerRoom  map[string]string
	roomPlayers map[string]map[string]struct{}
}

// NewIndex 创建空索引
func NewIndex() *Index {
	return &Index{
		connPlayer:  make(map[string]string),
		playerConn:  make(map[string]string),
		playerRoom:  make(map[string]string),
		roomPlayers: make(map[string]map[string]struct{}),
	}
}

// Bind 绑定连接、玩家和房间。玩家换了新连接时旧连接的绑定会被替换
func (x *Index) Bind(conn, player, room string) {
	if old, ok := x.playerConn[player]; ok && old != conn {
		delete(x.connPlayer, old)
	}
	if oldPlayer, ok := x.connPlayer[conn]; ok && oldPlayer != player {
		delete(x.playerConn, oldPlayer)
	}
	x.connPlayer[conn] = player
	x.playerConn[player] = conn

	if prev, ok := x.playerRoom[player]; ok && prev != room {
		x.removeFromRoom(prev, player)
	}
	x.playerRoom[player] = room
	set, ok := x.roomPlayers[room]
	if !ok {
		set = make(map[string]struct{})
		x.roomPlayers[room] = set
	}
	set[player] = struct{}{}
}

// Unbind 只解除连接与玩家的绑定，玩家仍属于原房间（断线保留期）
func (x *Index) Unbind(conn string) (string, bool) {
	player, ok := x.connPlayer[conn]
	if !ok {
		return "", false
	}
	delete(x.connPlayer, conn)
	delete(x.playerConn, player)
	return player, true
}

// RemovePlayer 删除玩家的全部条目
func (x *Index) RemovePlayer(player string) {
	if conn, ok := x.playerConn[player]; ok {
		delete(x.connPlayer, conn)
		delete(x.playerConn, player)
	}
	if room, ok := x.playerRoom[player]; ok {
		delete(x.playerRoom, player)
		x.removeFromRoom(room, player)
	}
}

// RemoveRoom 删除房间及其所有玩家的条目，返回被删除的玩家
func (x *Index) RemoveRoom(room string) []string {
	players := x.Players(room)
	for _, p := range players {
		x.RemovePlayer(p)
	}
	delete(x.roomPlayers, room)
	return players
}

// Resolve 连接 → (玩家, 房间)
func (x *Index) Resolve(conn string) (player, room string, ok bool) {
	player, ok = x.connPlayer[conn]
	if !ok {
		return "", "", false
	}
	room, ok = x.playerRoom[player]
	if !ok {
		return "", "", false
	}
	return player, room, true
}

// Bound 连接是否已绑定玩家
func (x *Index) Bound(conn string) bool {
	_, ok := x.connPlayer[conn]
	return ok
}

// RoomOf 玩家所在房间
func (x *Index) RoomOf(player string) (string, bool) {
	room, ok := x.playerRoom[player]
	return room, ok
}

// ConnOf 玩家当前的连接
func (x *Index) ConnOf(player string) (string, bool) {
	conn, ok := x.playerConn[player]
	return conn, ok
}

// Players 房间内的玩家，按 ID 排序
func (x *Index) Players(room string) []string {
	set := x.roomPlayers[room]
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len 返回 (连接数, 玩家数, 房间数)
func (x *Index) Len() (conns, players, rooms int) {
	return len(x.connPlayer), len(x.playerRoom), len(x.roomPlayers)
}

// Check 校验各表互相一致，发现悬空条目时返回错误
func (x *Index) Check() error {
	for conn, player := range x.connPlayer {
		if x.playerConn[player] != conn {
			return fmt.Errorf("conn %s → player %s has no reverse entry", conn, player)
		}
		if _, ok := x.playerRoom[player]; !ok {
			return fmt.Errorf("conn %s bound to player %s without room", conn, player)
		}
	}
	for player, conn := range x.playerConn {
		if x.connPlayer[conn] != player {
			return fmt.Errorf("player %s → conn %s has no forward entry", player, conn)
		}
	}
	for player, room := range x.playerRoom {
		if _, ok := x.roomPlayers[room][player]; !ok {
			return fmt.Errorf("player %s → room %s missing from room set", player, room)
		}
	}
	for room, set := range x.roomPlayers {
		if len(set) == 0 {
			return fmt.Errorf("room %s has empty player set", room)
		}
		for player := range set {
			if x.playerRoom[player] != room {
				return fmt.Errorf("room %s lists player %s mapped elsewhere", room, player)
			}
		}
	}
	return nil
}

func (x *Index) removeFromRoom(room, player string) {
	set, ok := x.roomPlayers[room]
	if !ok {
		return
	}
	delete(set, player)
	if len(set) == 0 {
		delete(x.roomPlayers, room)
	}
}
