package model

import (
	"time"
)

// Client 客户主档（业务键 external_id，来自主表的「ID client」；导入只增改不删）
type Client struct {
	ID             uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	ExternalID     string    `gorm:"column:external_id;type:varchar(64);uniqueIndex;not null;comment:外部客户ID（跨导入稳定）"`
	Name           string    `gorm:"column:name;type:varchar(256);comment:客户名称"`
	AccountNumber  *string   `gorm:"column:account_number;type:varchar(64);comment:客户账号"`
	Representative *string   `gorm:"column:pssr;type:varchar(128);comment:负责的技术商务代表（PSSR/ISR）"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamp;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:timestamp;autoUpdateTime"`

	Machines []Machine `gorm:"foreignKey:ClientID"`
}

// Machine 机器主档。serial_number 是全部附表的唯一关联键；
// 附表引用未知序列号时会先落一条最小 stub（serial + model）。
type Machine struct {
	ID           uint64   `gorm:"column:id;primaryKey;autoIncrement"`
	SerialNumber string   `gorm:"column:serial_number;type:varchar(64);uniqueIndex;not null;comment:机器序列号（N° série du matériel）"`
	Make         *string  `gorm:"column:make;type:varchar(64)"`
	Model        *string  `gorm:"column:model;type:varchar(64)"`
	Family       *string  `gorm:"column:family;type:varchar(128);comment:产品族（Famille de produits）"`
	ServiceMeter *float64 `gorm:"column:service_meter;type:numeric(12,2);comment:保养小时计数"`
	// LastReportedTime 保留 Excel 浮点日期原值，不做解析
	LastReportedTime *float64 `gorm:"column:last_reported_time;type:numeric(18,6)"`
	Status           *string  `gorm:"column:status;type:varchar(256);comment:最近上报的自由文本状态"`
	Latitude         *float64 `gorm:"column:latitude;type:numeric(10,6)"`
	Longitude        *float64 `gorm:"column:longitude;type:numeric(10,6)"`
	LastVisit        *string  `gorm:"column:last_visit;type:varchar(64)"`
	NextVisit        *string  `gorm:"column:next_visit;type:varchar(64)"`
	// PSIStatus 是 InspectionRecord.is_inspected 的去范式缓存，由巡检装载器整体重写
	PSIStatus *string `gorm:"column:psi_status;type:varchar(64)"`
	ClientID  *uint64 `gorm:"column:client_id;type:bigint;index"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;autoUpdateTime"`

	Client        *Client                 `gorm:"foreignKey:ClientID"`
	Contract      *ContractRecord         `gorm:"foreignKey:SerialNumber;references:SerialNumber"`
	Inspections   []InspectionRecord      `gorm:"foreignKey:SerialNumber;references:SerialNumber"`
	Campaigns     []ServiceCampaignRecord `gorm:"foreignKey:SerialNumber;references:SerialNumber"`
	Remote        *RemoteServiceRecord    `gorm:"foreignKey:SerialNumber;references:SerialNumber"`
	Interventions []Intervention          `gorm:"foreignKey:MachineID"`
}

// ContractRecord CVAF 增值服务合同快照，每台机器至多一条（serial_number 唯一）。
// 三项评分源头编码混乱（数字/分数/文本），原样存字符串，判定走 model.Score。
type ContractRecord struct {
	ID                uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	SerialNumber      string  `gorm:"column:serial_number;type:varchar(64);uniqueIndex;not null"`
	StartDate         *string `gorm:"column:start_date;type:varchar(64)"`
	EndDate           *string `gorm:"column:end_date;type:varchar(64)"`
	CvaType           *string `gorm:"column:cva_type;type:varchar(64)"`
	CountryCode       *string `gorm:"column:country_code;type:varchar(16)"`
	ProductVertical   *string `gorm:"column:product_vertical;type:varchar(64)"`
	DlrCustNm         *string `gorm:"column:dlr_cust_nm;type:varchar(256)"`
	CurrentAssetAge   *int    `gorm:"column:current_asset_age;type:int"`
	AssetAgeGroup     *string `gorm:"column:asset_age_group;type:varchar(64)"`
	InspectionScore   *string `gorm:"column:inspection_score;type:varchar(32)"`
	ConnectivityScore *string `gorm:"column:connectivity_score;type:varchar(32)"`
	SosScore          *string `gorm:"column:sos_score;type:varchar(32)"`
}

// InspectionRecord 巡检/工单记录，每台机器多条
type InspectionRecord struct {
	ID             uint64   `gorm:"column:id;primaryKey;autoIncrement"`
	SerialNumber   string   `gorm:"column:serial_number;type:varchar(64);index;not null"`
	OrSegment      *string  `gorm:"column:or_segment;type:varchar(64);comment:N° OR (Segment)"`
	TypeMateriel   *string  `gorm:"column:type_materiel;type:varchar(128)"`
	Atelier        *string  `gorm:"column:atelier;type:varchar(128)"`
	DateFacture    *string  `gorm:"column:date_facture;type:varchar(64)"`
	LastInspect    *string  `gorm:"column:last_inspect;type:varchar(64)"`
	Nbr            *int     `gorm:"column:nbr;type:int"`
	NomClientOr    *string  `gorm:"column:nom_client_or;type:varchar(256)"`
	IsInspected    *string  `gorm:"column:is_inspected;type:varchar(64);comment:Inspecté / Non Inspecté"`
	TechnicienReel *string  `gorm:"column:technicien_reel;type:varchar(128)"`
	EquipeReelle   *string  `gorm:"column:equipe_reelle;type:varchar(128)"`
	TempsReel      *float64 `gorm:"column:temps_reel;type:numeric(10,2)"`
}

// ServiceCampaignRecord 厂家服务信函/召回（Suivi_PS），每台机器多条
type ServiceCampaignRecord struct {
	ID              uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	SerialNumber    string  `gorm:"column:serial_number;type:varchar(64);index;not null"`
	Date            *string `gorm:"column:date;type:varchar(64);comment:Letter Date"`
	Client          *string `gorm:"column:client;type:varchar(256)"`
	ReferenceNumber *string `gorm:"column:reference_number;type:varchar(64);comment:Program Number"`
	PsType          *string `gorm:"column:ps_type;type:varchar(128)"`
	Status          *string `gorm:"column:status;type:varchar(32);comment:Open/Closed"`
	Description     *string `gorm:"column:description;type:text"`
	ActionRequired  *string `gorm:"column:action_required;type:text"`
	Deadline        *string `gorm:"column:deadline;type:varchar(64);comment:Term Date"`
}

// RemoteServiceRecord 远程服务标志，每台机器至多一条。flash_update 三态：空 / "0" / "1"
type RemoteServiceRecord struct {
	ID           uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	SerialNumber string  `gorm:"column:serial_number;type:varchar(64);uniqueIndex;not null"`
	FlashUpdate  *string `gorm:"column:flash_update;type:varchar(8)"`
}

// Intervention 维保行动项。PENDING 行由生成任务整体重建，
// PLANNED/COMPLETED/CANCELLED 由人工流程维护，重建时必须原样保留。
type Intervention struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	MachineID   uint64    `gorm:"column:machine_id;type:bigint;index;not null"`
	Type        string    `gorm:"column:type;type:varchar(32);index;comment:CVAF/INSPECTION/SUIVI_PS/REMOTE_SERVICE/ALERTE"`
	Priority    string    `gorm:"column:priority;type:varchar(16);index;comment:HIGH/MEDIUM/LOW"`
	Status      string    `gorm:"column:status;type:varchar(16);index"`
	Description *string   `gorm:"column:description;type:text"`
	DateCreated time.Time `gorm:"column:date_created;type:timestamp;autoCreateTime"`
}

func (Client) TableName() string                { return "clients" }
func (Machine) TableName() string               { return "machines" }
func (ContractRecord) TableName() string        { return "cvaf" }
func (InspectionRecord) TableName() string      { return "inspection_rate" }
func (ServiceCampaignRecord) TableName() string { return "suivi_ps" }
func (RemoteServiceRecord) TableName() string   { return "remote_service" }
func (Intervention) TableName() string          { return "interventions" }
