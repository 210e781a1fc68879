package services

import "errors"

// 业务错误，控制器据此映射为错误码
var (
	ErrForbidden          = errors.New("无权限执行此操作")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserDisabled       = errors.New("账号已停用")
	ErrUserLocked         = errors.New("登录失败次数过多")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUsernameTaken      = errors.New("用户名已存在")
	ErrOldPassword        = errors.New("原密码错误")
	ErrDeleteSelf         = errors.New("不能删除当前登录用户")

	ErrCommunityNotFound = errors.New("小区不存在")
	ErrCommunityNameUsed = errors.New("小区名称已存在")
	ErrCommunityInUse    = errors.New("该小区下存在分期，无法删除")
	ErrPhaseNotFound     = errors.New("分期不存在")
	ErrPhaseCodeUsed     = errors.New("分期编码已存在")
	ErrPhaseInUse        = errors.New("该分期下存在业主，无法删除")

	ErrOwnerNotFound       = errors.New("业主不存在")
	ErrDuplicateRoomNumber = errors.New("房间号已存在")
	ErrImportFile          = errors.New("导入文件无效")

	ErrRoundNotFound  = errors.New("投票轮次不存在")
	ErrRoundCodeUsed  = errors.New("轮次编码已存在")
	ErrVoteNotFound   = errors.New("投票记录不存在")
	ErrInvalidStatus  = errors.New("状态值无效")
	ErrEmptyOwnerList = errors.New("业主列表不能为空")
	ErrInvalidDate    = errors.New("日期格式应为 YYYY-MM-DD")
)
