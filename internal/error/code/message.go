package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "成功",
	ErrUnknown:         "服务器内部错误",
	ErrBind:            "请求参数格式错误",
	ErrValidation:      "请求参数验证错误",
	ErrTokenInvalid:    "登录已失效，请重新登录",
	ErrTooManyRequests: "请求过于频繁，请稍后再试",
	ErrForbidden:       "无权限执行此操作",
	ErrNotFound:        "资源不存在",

	// 用户相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserAlreadyExist:      "用户名已存在",
	ErrUserPasswordIncorrect: "用户名或密码错误",
	ErrUserDisabled:          "账号已停用",
	ErrUserLocked:            "登录失败次数过多，请稍后再试",
	ErrOldPasswordIncorrect:  "原密码错误",

	// 小区与分期错误码
	ErrCommunityNotFound:     "小区不存在",
	ErrCommunityAlreadyExist: "小区名称已存在",
	ErrCommunityInUse:        "该小区下存在分期，无法删除",
	ErrPhaseNotFound:         "分期不存在",
	ErrPhaseCodeExist:        "分期编码已存在",
	ErrPhaseInUse:            "该分期下存在业主，无法删除",

	// 业主相关错误码
	ErrOwnerNotFound:   "业主不存在",
	ErrRoomNumberExist: "房间号已存在",
	ErrImportFile:      "导入文件无效",

	// 投票相关错误码
	ErrRoundNotFound:  "投票轮次不存在",
	ErrRoundCodeExist: "轮次编码已存在",
	ErrVoteNotFound:   "投票记录不存在",
	ErrInvalidStatus:  "状态值无效",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,
	ErrForbidden:       StatusForbidden,
	ErrNotFound:        StatusNotFound,

	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,
	ErrUserDisabled:          StatusForbidden,
	ErrUserLocked:            StatusTooManyRequests,
	ErrOldPasswordIncorrect:  StatusBadRequest,

	ErrCommunityNotFound:     StatusNotFound,
	ErrCommunityAlreadyExist: StatusBadRequest,
	ErrCommunityInUse:        StatusBadRequest,
	ErrPhaseNotFound:         StatusNotFound,
	ErrPhaseCodeExist:        StatusBadRequest,
	ErrPhaseInUse:            StatusBadRequest,

	ErrOwnerNotFound:   StatusNotFound,
	ErrRoomNumberExist: StatusBadRequest,
	ErrImportFile:      StatusBadRequest,

	ErrRoundNotFound:  StatusNotFound,
	ErrRoundCodeExist: StatusBadRequest,
	ErrVoteNotFound:   StatusNotFound,
	ErrInvalidStatus:  StatusBadRequest,

	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
