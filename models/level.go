package models

// LevelDefinition is one row of a role track's level table. Static config,
// loaded once at process start; never persisted.
type LevelDefinition struct {
	Level      int      `json:"level"`
	Title      string   `json:"title"`
	Icon       string   `json:"icon"`
	Color      string   `json:"color"`
	XPRequired int      `json:"xp_required"`
	Benefits   []string `json:"benefits"`
}

// ClientLevels is the client track: thresholds strictly increasing, level 1 = 0 XP.
var ClientLevels = []LevelDefinition{
	{Level: 1, Title: "Новичок", Icon: "🌱", Color: "#9CA3AF", XPRequired: 0, Benefits: []string{"Доступ к каталогу услуг"}},
	{Level: 2, Title: "Клиент", Icon: "🙋", Color: "#60A5FA", XPRequired: 100, Benefits: []string{"Быстрые отклики мастеров"}},
	{Level: 3, Title: "Постоянный клиент", Icon: "⭐", Color: "#34D399", XPRequired: 300, Benefits: []string{"Скидка 3% на комиссию"}},
	{Level: 4, Title: "Активный клиент", Icon: "🔥", Color: "#FBBF24", XPRequired: 600, Benefits: []string{"Приоритет в поиске мастеров"}},
	{Level: 5, Title: "Опытный заказчик", Icon: "🎯", Color: "#F59E0B", XPRequired: 1000, Benefits: []string{"Скидка 5% на комиссию"}},
	{Level: 6, Title: "Знаток сервиса", Icon: "💎", Color: "#A78BFA", XPRequired: 1500, Benefits: []string{"Персональные подборки"}},
	{Level: 7, Title: "VIP-клиент", Icon: "👑", Color: "#8B5CF6", XPRequired: 2200, Benefits: []string{"VIP-поддержка"}},
	{Level: 8, Title: "Амбассадор", Icon: "🚀", Color: "#EC4899", XPRequired: 3000, Benefits: []string{"Повышенные реферальные бонусы"}},
	{Level: 9, Title: "Легенда сервиса", Icon: "🏆", Color: "#F97316", XPRequired: 4000, Benefits: []string{"Скидка 10% на комиссию"}},
	{Level: 10, Title: "Я и есть сервис", Icon: "🌟", Color: "#EF4444", XPRequired: 5500, Benefits: []string{"Все привилегии платформы"}},
}

// ExecutorLevels is the executor track.
var ExecutorLevels = []LevelDefinition{
	{Level: 1, Title: "Стажёр", Icon: "🧰", Color: "#9CA3AF", XPRequired: 0, Benefits: []string{"Доступ к заказам"}},
	{Level: 2, Title: "Мастер", Icon: "🔧", Color: "#60A5FA", XPRequired: 150, Benefits: []string{"Значок мастера в профиле"}},
	{Level: 3, Title: "Опытный мастер", Icon: "⚙️", Color: "#34D399", XPRequired: 400, Benefits: []string{"Приоритет в выдаче"}},
	{Level: 4, Title: "Профессионал", Icon: "🛠️", Color: "#FBBF24", XPRequired: 800, Benefits: []string{"Скидка 5% на комиссию"}},
	{Level: 5, Title: "Эксперт", Icon: "🎓", Color: "#F59E0B", XPRequired: 1400, Benefits: []string{"Доступ к крупным заказам"}},
	{Level: 6, Title: "Мастер своего дела", Icon: "💎", Color: "#A78BFA", XPRequired: 2200, Benefits: []string{"Продвижение профиля"}},
	{Level: 7, Title: "Элитный мастер", Icon: "👑", Color: "#8B5CF6", XPRequired: 3200, Benefits: []string{"Элитный значок"}},
	{Level: 8, Title: "Гуру сервиса", Icon: "🚀", Color: "#EC4899", XPRequired: 4500, Benefits: []string{"Скидка 10% на комиссию"}},
	{Level: 9, Title: "Легенда платформы", Icon: "🏆", Color: "#F97316", XPRequired: 6000, Benefits: []string{"Персональный менеджер"}},
	{Level: 10, Title: "Гранд-мастер", Icon: "🌟", Color: "#EF4444", XPRequired: 8000, Benefits: []string{"Все привилегии платформы"}},
}

// LevelsFor returns the ordered level table for a role track.
// Unknown roles fall back to the client track so the resolver stays total.
func LevelsFor(role Role) []LevelDefinition {
	if role == RoleExecutor {
		return ExecutorLevels
	}
	return ClientLevels
}
