package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
	// ErrForbidden - 403: 无权限.
	ErrForbidden
	// ErrNotFound - 404: 资源不存在.
	ErrNotFound
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户名或密码错误.
	ErrUserPasswordIncorrect
	// ErrUserDisabled - 403: 账号已停用.
	ErrUserDisabled
	// ErrUserLocked - 429: 登录失败次数过多.
	ErrUserLocked
	// ErrOldPasswordIncorrect - 400: 原密码错误.
	ErrOldPasswordIncorrect
)

// 小区与分期错误码 (102xxx).
const (
	// ErrCommunityNotFound - 404: 小区不存在.
	ErrCommunityNotFound int = iota + 102000
	// ErrCommunityAlreadyExist - 400: 小区名称已存在.
	ErrCommunityAlreadyExist
	// ErrCommunityInUse - 400: 小区下存在分期.
	ErrCommunityInUse
	// ErrPhaseNotFound - 404: 分期不存在.
	ErrPhaseNotFound
	// ErrPhaseCodeExist - 400: 分期编码已存在.
	ErrPhaseCodeExist
	// ErrPhaseInUse - 400: 分期下存在业主.
	ErrPhaseInUse
)

// 业主相关错误码 (103xxx).
const (
	// ErrOwnerNotFound - 404: 业主不存在.
	ErrOwnerNotFound int = iota + 103000
	// ErrRoomNumberExist - 400: 房间号已存在.
	ErrRoomNumberExist
	// ErrImportFile - 400: 导入文件无效.
	ErrImportFile
)

// 投票相关错误码 (104xxx).
const (
	// ErrRoundNotFound - 404: 投票轮次不存在.
	ErrRoundNotFound int = iota + 104000
	// ErrRoundCodeExist - 400: 轮次编码已存在.
	ErrRoundCodeExist
	// ErrVoteNotFound - 404: 投票记录不存在.
	ErrVoteNotFound
	// ErrInvalidStatus - 400: 状态值无效.
	ErrInvalidStatus
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)
